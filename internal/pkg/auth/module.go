package auth

import (
	"strings"

	"github.com/polkiloo/pointsledger/internal/config"
	"go.uber.org/fx"
)

// Module provides authentication primitives via fx.
var Module = fx.Options(
	fx.Provide(func() HashComparer { return BcryptComparer{} }),
	fx.Provide(newTokenVerifier),
)

type verifierParams struct {
	fx.In

	Config   *config.Config
	Comparer HashComparer
}

func newTokenVerifier(p verifierParams) (TokenVerifier, error) {
	if hash := strings.TrimSpace(p.Config.OpsTokenHash); hash != "" {
		if err := ValidateBcryptHash(hash); err != nil {
			return nil, err
		}
	}
	return NewHashTokenVerifier(p.Config.OpsTokenHash, p.Comparer), nil
}
