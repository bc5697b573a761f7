package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
)

// loadParams reads host params from a YAML file. A positive serviceID
// overrides the file's serviceid. An empty path yields params carrying
// only the override.
func loadParams(path string, serviceID int64) (model.ModuleParams, error) {
	var params model.ModuleParams

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return params, fmt.Errorf("read params file: %w", err)
		}
		if err := yaml.Unmarshal(data, &params); err != nil {
			return params, fmt.Errorf("parse params file %s: %w", path, err)
		}
	}

	if serviceID > 0 {
		params.ServiceID = serviceID
	}
	if params.ServiceID <= 0 {
		return params, fmt.Errorf("serviceid is required: set it in the params file or pass --service-id")
	}

	return params, nil
}
