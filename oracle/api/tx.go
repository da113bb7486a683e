package api

import (
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/VerisLabs/hurdleRateOracle/oracle/log"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

const maxTxBodySize = 64 << 10

// requireAdmin rejects requests without the configured bearer token.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken != "" {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
				s.writeError(w, http.StatusUnauthorized, fmt.Errorf("missing or invalid admin token"))
				return
			}
		}
		next(w, r)
	}
}

// handleTx delivers one owner message. Fulfillments only come from the
// in-process router and are refused here.
func (s *Server) handleTx(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxTxBodySize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	msg, err := types.DecodeMsgJSON(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, ok := msg.(*types.MsgFulfill); ok {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%s messages are not accepted", msg.Type()))
		return
	}

	res, err := s.app.Deliver(msg)
	if err != nil {
		log.Infof("api: %s rejected: %v", msg.Type(), err)
		s.writeError(w, statusOf(err), err)
		return
	}

	encoded, err := encodeEvents(s.app.Height(), res.Events)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	b := (&body{raw: encoded}).set("type", msg.Type())
	if len(res.Data) > 0 {
		b.set("data", hexutil.Encode(res.Data))
	}
	s.write(w, http.StatusOK, b)
}
