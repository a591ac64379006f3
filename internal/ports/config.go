package ports

import "rydm/internal/domain"

type ConfigService interface {
	Load() (domain.Config, error)
}
