package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/storage"
)

// InitStorage picks where content downloads are read from: the Spaces bucket
// when USE_SPACES is set, the local media root otherwise.
func InitStorage(env Environment) (storage.Storage, error) {
	if env.UseSpaces {
		spaces, err := storage.NewSpacesStorage(
			env.SpacesEndpoint,
			env.SpacesRegion,
			env.SpacesBucket,
			env.SpacesCDNURL,
			env.SpacesAccessKey,
			env.SpacesSecretKey,
		)
		if err != nil {
			return nil, fmt.Errorf("spaces storage: %w", err)
		}
		log.Info().Str("bucket", env.SpacesBucket).Str("cdn", env.SpacesCDNURL).Msg("serving content from Spaces")
		return spaces, nil
	}

	info, err := os.Stat(env.MediaRoot)
	switch {
	case err != nil:
		// downloads answer 404 until the directory appears
		log.Warn().Err(err).Str("root", env.MediaRoot).Msg("media root not accessible")
	case !info.IsDir():
		return nil, fmt.Errorf("media root %s is not a directory", env.MediaRoot)
	}
	log.Info().Str("root", env.MediaRoot).Msg("serving content from local media root")
	return storage.NewLocalStorage(env.MediaRoot), nil
}
