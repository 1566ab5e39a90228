package consts

const (
	InteractionLock = "interaction:lock:"
)
