package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mvdops/blendboard/internal/modules/market"
)

// Generator produces structured JSON from the language model. The OpenAI
// client implements it; tests substitute a canned generator.
type Generator interface {
	Configured() bool
	GenerateJSON(ctx context.Context, model, system, user, schemaName string, schema json.RawMessage) (string, error)
}

// Handler serves the market commentary endpoint.
type Handler struct {
	snapshots *market.SnapshotBuilder
	cache     *market.CommentCache
	gen       Generator
	model     string
	schema    *jsonschema.Schema
	log       zerolog.Logger
}

// NewHandler creates a market commentary handler. The comment schema is
// compiled once here; a broken schema is a programming error.
func NewHandler(snapshots *market.SnapshotBuilder, cache *market.CommentCache, gen Generator, model string, log zerolog.Logger) (*Handler, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("comment.json", strings.NewReader(string(market.CommentSchema))); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile("comment.json")
	if err != nil {
		return nil, err
	}
	return &Handler{
		snapshots: snapshots,
		cache:     cache,
		gen:       gen,
		model:     model,
		schema:    schema,
		log:       log.With().Str("handler", "market").Logger(),
	}, nil
}

// commentResponse is the envelope served to the dashboard: the snapshot,
// the legacy bullet shape and the simple paragraph shape.
type commentResponse struct {
	Snapshot      *market.Snapshot     `json:"snapshot"`
	Comment       market.LegacyComment `json:"comment"`
	CommentSimple market.SimpleComment `json:"comment_simple"`
	Cached        bool                 `json:"cached"`
}

// HandleGetComment handles GET /api/comment. ?refresh=1 bypasses the
// per-day cache and overwrites it.
func (h *Handler) HandleGetComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snap, err := h.snapshots.Build(ctx)
	if err != nil {
		if errors.Is(err, market.ErrNoScenarioData) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Snapshot build failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	asof := ""
	if snap.AsOf != nil {
		asof = *snap.AsOf
	}
	refresh := r.URL.Query().Get("refresh") == "1"

	if !refresh && asof != "" {
		if payload, ok, err := h.cache.Get(ctx, asof); err != nil {
			h.log.Warn().Err(err).Msg("Comment cache read failed, regenerating")
		} else if ok {
			var cached commentResponse
			if decodeErr := json.Unmarshal(payload, &cached); decodeErr == nil {
				cached.Snapshot = snap
				cached.Cached = true
				writeJSON(w, http.StatusOK, cached)
				return
			} else {
				h.log.Warn().Err(decodeErr).Msg("Discarding undecodable cached comment")
			}
		}
	}

	if !h.gen.Configured() {
		writeError(w, http.StatusServiceUnavailable, "comment generation is not configured")
		return
	}

	system, user, err := market.BuildCommentPrompt(snap)
	if err != nil {
		h.log.Error().Err(err).Msg("Prompt build failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	text, err := h.gen.GenerateJSON(ctx, h.model, system, user, market.SchemaName, market.CommentSchema)
	if err != nil {
		h.log.Error().Err(err).Msg("Comment generation failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	raw := json.RawMessage(text)
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		writeError(w, http.StatusInternalServerError, "model returned invalid JSON")
		return
	}
	if err := h.schema.Validate(parsed); err != nil {
		h.log.Warn().Err(err).Msg("Model output failed schema validation, normalizing anyway")
	}

	simple := market.ToSimpleFromModel(raw)
	resp := commentResponse{
		Snapshot:      snap,
		Comment:       market.ToLegacy(raw, simple),
		CommentSimple: simple,
	}

	if asof != "" {
		if payload, err := json.Marshal(resp); err == nil {
			if err := h.cache.Put(ctx, asof, payload); err != nil {
				h.log.Warn().Err(err).Msg("Comment cache write failed")
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
