package main

import (
	"edge-gateway/internal/function"
	"edge-gateway/internal/functions/mc"
	"edge-gateway/internal/functions/meme"
	"edge-gateway/internal/functions/uservault"
	"edge-gateway/internal/functions/vaultreader"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/throttle"
)

// buildFunctions assembles every deployed edge function around one store
// client. rates and limiter may be nil.
func buildFunctions(caller rpc.Caller, auditor function.Auditor, rates *throttle.RateLimiter, limiter throttle.Limiter) []*function.Function {
	fns := []*function.Function{
		vaultreader.New(caller),
		mc.New(caller),
		meme.New(caller),
		uservault.New(caller),
	}
	for _, f := range fns {
		f.Auditor = auditor
		if rates != nil {
			f.Middleware = append(f.Middleware, throttle.RateMiddleware(rates))
		}
		if limiter != nil {
			f.Middleware = append(f.Middleware, throttle.Middleware(limiter))
		}
	}
	return fns
}
