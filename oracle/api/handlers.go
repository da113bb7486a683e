package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/tidwall/sjson"

	"github.com/VerisLabs/hurdleRateOracle/oracle/log"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/keeper"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

// body assembles a JSON object from path/value pairs.
type body struct {
	raw []byte
	err error
}

func newBody() *body {
	return &body{raw: []byte("{}")}
}

func (b *body) set(path string, value interface{}) *body {
	if b.err != nil {
		return b
	}
	b.raw, b.err = sjson.SetBytes(b.raw, path, value)
	return b
}

func (s *Server) write(w http.ResponseWriter, code int, b *body) {
	if b.err != nil {
		s.writeError(w, http.StatusInternalServerError, b.err)
		return
	}

	raw, err := sjson.SetBytes(b.raw, "height", s.app.Height())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(raw); err != nil {
		log.Debugf("api: failed to write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	raw, _ := sjson.SetBytes([]byte("{}"), "error", err.Error())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(raw)
}

// statusOf maps module errors onto HTTP codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, types.ErrTokenNotRegistered), errors.Is(err, types.ErrIndexOutOfBounds):
		return http.StatusNotFound
	case errors.Is(err, sdkerrors.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, types.ErrTokenAlreadyRegistered), errors.Is(err, types.ErrRequestAlreadyOpen),
		errors.Is(err, types.ErrPaused), errors.Is(err, types.ErrUpdateTooFrequent):
		return http.StatusConflict
	case errors.Is(err, types.ErrInvalidTimeRange), errors.Is(err, types.ErrInvalidPosition),
		errors.Is(err, types.ErrAddressZero), errors.Is(err, types.ErrInvalidSource),
		errors.Is(err, types.ErrInvalidSubscriptionID), errors.Is(err, types.ErrInvalidDonID),
		errors.Is(err, types.ErrInvalidGasLimit), errors.Is(err, sdkerrors.ErrInvalidAddress),
		errors.Is(err, sdkerrors.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleRates(w http.ResponseWriter, _ *http.Request) {
	b := newBody()
	err := s.app.Query(func(ctx sdk.Context, k *keeper.Keeper) error {
		bitmap := k.GetAllRates(ctx)
		b.set("bitmap", types.BitmapToUint(bitmap)).
			set("lanes", types.UnpackAll(bitmap)).
			set("last_update", k.GetLastUpdate(ctx))
		return nil
	})
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	s.write(w, http.StatusOK, b)
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["token"]
	if !common.IsHexAddress(raw) {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid token address: %s", raw))
		return
	}
	token := common.HexToAddress(raw)

	b := newBody()
	err := s.app.Query(func(ctx sdk.Context, k *keeper.Keeper) error {
		rate, updated, err := k.GetRate(ctx, token)
		if err != nil {
			return err
		}
		b.set("token", token).
			set("position", k.LookupPosition(ctx, token)).
			set("rate", rate).
			set("updated_at", updated.Unix())
		return nil
	})
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	s.write(w, http.StatusOK, b)
}

func (s *Server) handlePositions(w http.ResponseWriter, _ *http.Request) {
	b := newBody()
	err := s.app.Query(func(ctx sdk.Context, k *keeper.Keeper) error {
		tokens := k.GetTokenRegistrations(ctx)
		if tokens == nil {
			tokens = []types.TokenRegistration{}
		}
		b.set("occupancy", k.GetRegisteredPositions(ctx)).
			set("tokens", tokens)
		return nil
	})
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	s.write(w, http.StatusOK, b)
}

// handleHistory returns every snapshot, or those in [start, end] when both
// query parameters are given.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ranged := q.Has("start") || q.Has("end")

	var start, end uint64
	if ranged {
		var err error
		if start, err = strconv.ParseUint(q.Get("start"), 10, 64); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid start: %w", err))
			return
		}
		if end, err = strconv.ParseUint(q.Get("end"), 10, 64); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid end: %w", err))
			return
		}
	}

	b := newBody()
	err := s.app.Query(func(ctx sdk.Context, k *keeper.Keeper) error {
		var (
			snapshots []types.RateSnapshot
			err       error
		)
		if ranged {
			snapshots, err = k.GetSnapshotsInRange(ctx, start, end)
		} else {
			snapshots, err = k.GetAllSnapshots(ctx)
		}
		if err != nil {
			return err
		}
		if snapshots == nil {
			snapshots = []types.RateSnapshot{}
		}
		b.set("length", k.HistoryLength(ctx)).
			set("snapshots", snapshots)
		return nil
	})
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	s.write(w, http.StatusOK, b)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(mux.Vars(r)["index"], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	b := newBody()
	err = s.app.Query(func(ctx sdk.Context, k *keeper.Keeper) error {
		snap, err := k.GetSnapshotAt(ctx, index)
		if err != nil {
			return err
		}
		b.set("index", index).set("snapshot", snap)
		return nil
	})
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	s.write(w, http.StatusOK, b)
}

func (s *Server) handleSnapshotAt(w http.ResponseWriter, r *http.Request) {
	timestamp, err := strconv.ParseUint(mux.Vars(r)["timestamp"], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	b := newBody()
	err = s.app.Query(func(ctx sdk.Context, k *keeper.Keeper) error {
		index, found := k.GetSnapshotIndexAt(ctx, timestamp)
		if !found {
			return fmt.Errorf("no snapshot at %d: %w", timestamp, types.ErrIndexOutOfBounds)
		}
		snap, err := k.GetSnapshotAt(ctx, index)
		if err != nil {
			return err
		}
		b.set("index", index).set("snapshot", snap)
		return nil
	})
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	s.write(w, http.StatusOK, b)
}

func (s *Server) handlePending(w http.ResponseWriter, _ *http.Request) {
	b := newBody()
	err := s.app.Query(func(ctx sdk.Context, k *keeper.Keeper) error {
		pending := k.GetPendingRequests(ctx)
		if pending == nil {
			pending = []types.PendingRequest{}
		}
		b.set("pending", pending)
		return nil
	})
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	s.write(w, http.StatusOK, b)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	b := newBody()
	err := s.app.Query(func(ctx sdk.Context, k *keeper.Keeper) error {
		st := k.GetStatus(ctx)
		b.set("owner", st.Owner).
			set("router", st.Router).
			set("config", st.Config).
			set("params", st.Params).
			set("last_update", st.LastUpdate).
			set("next_update", st.NextUpdate).
			set("registered_positions", st.RegisteredPositions).
			set("history_length", st.HistoryLength).
			set("pending_count", st.PendingCount)
		return nil
	})
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	s.write(w, http.StatusOK, b)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	code := http.StatusOK
	healthy := true
	checks := map[string]interface{}{}

	if s.checker != nil {
		healthy = s.checker.IsHealthy()
		for name, status := range s.checker.GetStatus() {
			checks[name] = status
		}
	}
	if !healthy {
		code = http.StatusServiceUnavailable
	}

	s.write(w, code, newBody().set("healthy", healthy).set("checks", checks))
}
