package service

import (
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
)

// StaticRoutes resolves named redirect targets against a fixed table
// loaded from configuration.
type StaticRoutes map[string]string

func (s StaticRoutes) Resolve(routeName string) (string, error) {
	url, ok := s[routeName]
	if !ok {
		return "", internal_errors.NotFound("Unknown route \"" + routeName + "\"")
	}
	return url, nil
}
