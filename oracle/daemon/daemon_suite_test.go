package daemon

import (
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/VerisLabs/hurdleRateOracle/oracle/log"
)

func TestDaemon(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Daemon Suite")
}

var _ = ginkgo.BeforeSuite(func() {
	log.InitLogger()
})
