package cmd

import (
	"strings"
	"time"

	"github.com/mfigueira/formpilot/pkg/persistence"
	"github.com/mfigueira/formpilot/pkg/persistence/file"
	"github.com/mfigueira/formpilot/pkg/persistence/redisq"
)

var supportedPersistenceProviders = []string{"file"}

func NewPersistence(databaseURL string) persistence.Persistence {
	provider := parsePersistenceProvider(databaseURL)

	switch provider {
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
	}
}

// NewQueue builds the record queue. A redis:// URL gets a dedicated Redis
// queue; anything else falls back to the queue embedded in the persistence
// layer itself.
func NewQueue(queueURL string, persist persistence.Persistence) (persistence.Queue, error) {
	if strings.HasPrefix(queueURL, "redis://") || strings.HasPrefix(queueURL, "rediss://") {
		return redisq.NewQueueFromURL(queueURL, 24*time.Hour)
	}

	return persist, nil
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")

	provider := parts[0]
	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
