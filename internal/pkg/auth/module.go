package auth

import (
	"github.com/polkiloo/pathway/internal/config"
	"go.uber.org/fx"
)

// Module provides authentication primitives via fx.
var Module = fx.Options(
	fx.Provide(newPasswordHasher),
	fx.Provide(newTokenIssuer),
)

type authParams struct {
	fx.In

	Config *config.Config
}

func newPasswordHasher(p authParams) PasswordHasher {
	return NewBcryptHasher(p.Config.BcryptCost)
}

func newTokenIssuer(p authParams) TokenIssuer {
	return NewJWTIssuer(p.Config.SecretKey, Options{TTL: p.Config.TokenTTL})
}
