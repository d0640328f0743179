package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/ecommerce-backend/api/responses"
	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
	"github.com/angelmondragon/ecommerce-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/ecommerce-backend/pkg/redis"
)

const (
	// IdempotencyKeyHeader carries the client supplied replay key.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader is set on responses served from a stored record.
	IdempotentReplayHeader = "Idempotent-Replayed"

	defaultIdempotencyTTL = 24 * time.Hour
)

// Keyed by "METHOD path" with no trailing slash.
var replayedRoutes = map[string]struct{}{
	http.MethodPost + " /api/v1/auth/register": {},
	http.MethodPost + " /api/v1/cart/items":    {},
}

func replayable(method, path string) bool {
	_, ok := replayedRoutes[method+" "+strings.TrimSuffix(path, "/")]
	return ok
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	Fingerprint string `json:"fingerprint"`
}

type replayer struct {
	store pkgredis.IdempotencyStore
	ttl   time.Duration
	logg  *logger.Logger
}

// Idempotency makes POST /auth/register and POST /cart/items safe to retry.
// The first non-5xx response for a key is stored and replayed for the same
// key and body; the same key with another body is a 409.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	rp := &replayer{store: store, ttl: ttl, logg: logg}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || !replayable(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, IdempotencyKeyHeader+" header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			sum := sha256.Sum256(body)
			fingerprint := hex.EncodeToString(sum[:])
			key := store.IdempotencyKey(requestScope(r), clientKey)

			prior, err := rp.lookup(ctx, key)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if prior != nil {
				if prior.Fingerprint != fingerprint {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
					return
				}
				prior.writeTo(w)
				return
			}

			tee := &teeWriter{ResponseWriter: w}
			next.ServeHTTP(tee, r)
			rp.save(ctx, key, tee, fingerprint)
		})
	}
}

// requestScope keeps keys from different users and routes apart.
func requestScope(r *http.Request) string {
	return strings.Join([]string{UserIDFromContext(r.Context()), r.Method, r.URL.Path}, "|")
}

func (rp *replayer) lookup(ctx context.Context, key string) (*storedResponse, error) {
	raw, err := rp.store.Get(ctx, key)
	switch {
	case errors.Is(err, redis.Nil), err == nil && raw == "":
		return nil, nil
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	var prior storedResponse
	if err := json.Unmarshal([]byte(raw), &prior); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return &prior, nil
}

func (rp *replayer) save(ctx context.Context, key string, tee *teeWriter, fingerprint string) {
	status := tee.statusOrOK()
	if status >= http.StatusInternalServerError {
		return
	}
	payload, err := json.Marshal(storedResponse{
		Status:      status,
		ContentType: tee.Header().Get("Content-Type"),
		Body:        tee.body.Bytes(),
		Fingerprint: fingerprint,
	})
	if err == nil {
		_, err = rp.store.SetNX(ctx, key, string(payload), rp.ttl)
	}
	if err != nil && rp.logg != nil {
		rp.logg.Error(ctx, "idempotency.store_failed", err)
	}
}

func (s *storedResponse) writeTo(w http.ResponseWriter) {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	w.Header().Set(IdempotentReplayHeader, "true")
	w.WriteHeader(s.Status)
	_, _ = w.Write(s.Body)
}

// teeWriter copies everything the handler writes.
type teeWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (t *teeWriter) WriteHeader(code int) {
	if t.status == 0 {
		t.status = code
	}
	t.ResponseWriter.WriteHeader(code)
}

func (t *teeWriter) Write(b []byte) (int, error) {
	if t.status == 0 {
		t.status = http.StatusOK
	}
	t.body.Write(b)
	return t.ResponseWriter.Write(b)
}

func (t *teeWriter) statusOrOK() int {
	if t.status == 0 {
		return http.StatusOK
	}
	return t.status
}
