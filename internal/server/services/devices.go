package services

import (
	"context"
	"fmt"

	"github.com/brightfield/sitesurvey/internal/common"
	"github.com/brightfield/sitesurvey/internal/server/auth"
	sc "github.com/brightfield/sitesurvey/internal/server/config"
	"github.com/brightfield/sitesurvey/internal/server/db"
	"github.com/brightfield/sitesurvey/internal/server/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DeviceService enrolls field devices and issues their API tokens.
type DeviceService struct {
	repos  db.RepositoryManager
	config *sc.Config
}

func NewDeviceService(repos db.RepositoryManager, config *sc.Config) *DeviceService {
	return &DeviceService{repos: repos, config: config}
}

// Register checks the operator-issued access code and, on success, enrolls
// the device and returns its id with a signed token.
func (s *DeviceService) Register(ctx context.Context, name, accessCode string) (string, string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.AccessCodeHash), []byte(accessCode)); err != nil {
		return "", "", fmt.Errorf("%w: invalid access code", common.ErrUnauthorized)
	}

	device := &models.Device{ID: uuid.NewString(), Name: name}
	if err := s.repos.Devices().Insert(ctx, device); err != nil {
		return "", "", err
	}

	token, err := auth.GenerateToken(device.ID, []byte(s.config.SecretKey), s.config.TokenValidityDuration)
	if err != nil {
		return "", "", err
	}

	return device.ID, token, nil
}
