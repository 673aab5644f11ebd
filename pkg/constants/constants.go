package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	AppKey       ContextKey = "app"
	LoggerKey    ContextKey = "logger"
	ParamsKey    ContextKey = "params"
	PageContext  ContextKey = "pageContext"
	SessionKey   ContextKey = "session"
	IdentityKey  ContextKey = "identity"
	UXConfigKey  ContextKey = "uxConfig"
	HeadKey      ContextKey = "head"
	NavItemsKey  ContextKey = "navItems"
)

var Validate = validator.New(validator.WithRequiredStructEnabled())
