package gateway

import (
	"context"
	"time"

	"llmadmin/internal/conf"
	"llmadmin/internal/llm"
	"llmadmin/internal/model"
	"llmadmin/internal/op"
	"llmadmin/internal/ratelimit"
	"llmadmin/internal/utils/log"
)

var std *Gateway
var closeLimiter func() error

// Setup wires the process-wide gateway from configuration: the redis limiter
// when an addr is configured, otherwise the in-process one.
func Setup() error {
	var limiter ratelimit.Limiter
	if addr := conf.AppConfig.Redis.Addr; addr != "" {
		rl, err := ratelimit.NewRedisLimiter(addr, conf.AppConfig.Redis.Password, conf.AppConfig.Redis.DB)
		if err != nil {
			return err
		}
		limiter = rl
		closeLimiter = rl.Close
		log.Infof("rate limiter: redis at %s", addr)
	} else {
		limiter = ratelimit.NewMemoryLimiter()
		log.Warnf("rate limiter: in-process counters, quota is not shared across instances")
	}

	backend := llm.NewMockBackend(
		conf.AppConfig.LLM.Model,
		conf.AppConfig.LLM.TokensPerSecond,
		llm.NewEstimator(conf.AppConfig.LLM.Estimator),
	)

	SetDefault(New(opKeys{}, limiter, opLedger{}, backend))
	return nil
}

func Default() *Gateway {
	return std
}

// SetDefault replaces the process-wide gateway. Tests use it to install a
// gateway built from fakes.
func SetDefault(g *Gateway) {
	std = g
}

func Close() error {
	if closeLimiter != nil {
		return closeLimiter()
	}
	return nil
}

type opKeys struct{}

func (opKeys) FindKey(ctx context.Context, id int) (model.APIKey, bool) {
	key, err := op.APIKeyGet(id, ctx)
	if err != nil {
		return model.APIKey{}, false
	}
	return key, true
}

type opLedger struct{}

func (opLedger) Append(ctx context.Context, ev model.UsageEvent) error {
	return op.UsageAdd(ctx, ev)
}

func (opLedger) MarkKeyUsed(ctx context.Context, keyID int, t time.Time) error {
	return op.APIKeyTouch(ctx, keyID, t)
}
