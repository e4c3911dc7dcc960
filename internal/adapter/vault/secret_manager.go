package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/seu-repo/ev-station-skill/pkg/config"
)

// Keys looked up in the skill's KV secret.
const (
	KeyStationsAPIKey       = "nrel_api_key"
	KeyBusinessSearchAPIKey = "yelp_api_key"
	KeyMapsAPIKey           = "google_maps_api_key"
	KeySkillID              = "skill_id"
)

type SecretManager struct {
	client *api.Client
	log    *zap.Logger
}

func NewSecretManager(address, token string, log *zap.Logger) (*SecretManager, error) {
	cfg := api.DefaultConfig()
	cfg.Address = address

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(token)

	return &SecretManager{client: client, log: log}, nil
}

// ReadKV reads a KV v2 secret and returns its string fields.
func (sm *SecretManager) ReadKV(ctx context.Context, path string) (map[string]string, error) {
	secret, err := sm.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret %s not found", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("secret %s is not a kv v2 secret", path)
	}

	out := make(map[string]string, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out, nil
}

// ApplySecrets overrides the API credentials in cfg with any values stored in
// Vault. Absent keys leave the configured value untouched.
func (sm *SecretManager) ApplySecrets(ctx context.Context, cfg *config.Config) error {
	values, err := sm.ReadKV(ctx, cfg.Vault.Path)
	if err != nil {
		return err
	}

	applied := 0
	for key, dst := range map[string]*string{
		KeyStationsAPIKey:       &cfg.Stations.APIKey,
		KeyBusinessSearchAPIKey: &cfg.BusinessSearch.APIKey,
		KeyMapsAPIKey:           &cfg.Maps.APIKey,
		KeySkillID:              &cfg.Skill.SkillID,
	} {
		if v := values[key]; v != "" {
			*dst = v
			applied++
		}
	}

	sm.log.Info("Secrets loaded from Vault",
		zap.String("path", cfg.Vault.Path),
		zap.Int("applied", applied),
	)
	return nil
}
