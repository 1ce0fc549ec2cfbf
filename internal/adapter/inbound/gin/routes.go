package gin

import "github.com/gin-gonic/gin"

// Guards holds per-route middleware chains. Mutate wraps state-changing
// endpoints, Status wraps the polled status endpoints.
type Guards struct {
	Mutate gin.HandlersChain
	Status gin.HandlersChain
}

func (g Guards) mutate(h gin.HandlerFunc) gin.HandlersChain {
	return chain(g.Mutate, h)
}

func (g Guards) status(h gin.HandlerFunc) gin.HandlersChain {
	return chain(g.Status, h)
}

func chain(mw gin.HandlersChain, h gin.HandlerFunc) gin.HandlersChain {
	out := make(gin.HandlersChain, 0, len(mw)+1)
	out = append(out, mw...)
	return append(out, h)
}
