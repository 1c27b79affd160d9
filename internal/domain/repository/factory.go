package repository

import "context"

// Factory describes access to different domain repositories.
type Factory interface {
	Events() EventStore
	Redemptions() RedemptionRepository
	Expirations() ExpirationRepository
	Directory() DirectoryRepository
	Sagas() SagaRepository
	Interventions() InterventionRepository
	HealthCheck(ctx context.Context) error
}
