package middleware

import (
	"math/rand/v2"
	"net/http"
	"sync"
	"time"
)

// maxSeenKeys は既読キーの上限。上限に達した時点で既読状態を破棄する。
const maxSeenKeys = 1024

// latencySimulator はネットワーク遅延を模擬する。
// GETは同じパスと検索語(q)の初回のみ遅延させ、それ以外のメソッドは既読状態を破棄して遅延させる。
type latencySimulator struct {
	max   time.Duration
	delay func(max time.Duration) time.Duration

	mu   sync.Mutex
	seen map[string]struct{}
}

func newLatencySimulator(max time.Duration, delay func(time.Duration) time.Duration) *latencySimulator {
	if delay == nil {
		delay = uniformDelay
	}
	return &latencySimulator{
		max:   max,
		delay: delay,
		seen:  make(map[string]struct{}),
	}
}

func uniformDelay(max time.Duration) time.Duration {
	return rand.N(max + 1)
}

// shouldDelay はリクエストを遅延させるかを判定し、既読状態を更新する。
func (s *latencySimulator) shouldDelay(r *http.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Method != http.MethodGet {
		clear(s.seen)
		return true
	}

	key := r.URL.Path
	if q := r.URL.Query().Get("q"); q != "" {
		key += "?q=" + q
	}
	if _, ok := s.seen[key]; ok {
		return false
	}
	if len(s.seen) >= maxSeenKeys {
		clear(s.seen)
	}
	s.seen[key] = struct{}{}
	return true
}

func (s *latencySimulator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.shouldDelay(r) {
			timer := time.NewTimer(s.delay(s.max))
			defer timer.Stop()

			select {
			case <-timer.C:
			case <-r.Context().Done():
				// クライアントが切断済みのためレスポンスは書かない
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// NewLatencyMiddleware は0からmaxまでの一様乱数で応答を遅延させるミドルウェアを返す。
// maxが0以下の場合は何もしない。
func NewLatencyMiddleware(max time.Duration) func(next http.Handler) http.Handler {
	if max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return newLatencySimulator(max, nil).middleware
}
