package handler

type ContextKey string

var (
	SubCtxKey     ContextKey = "sub"
	ExperimentCtx ContextKey = "experiment"
)
