package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SMARTAPI_"

// ApplyEnv overlays environment variables onto c. environ has the shape of
// os.Environ(). Recognised groups:
//
//	SMARTAPI_API_KEY, SMARTAPI_BASE_URL, SMARTAPI_TIMEOUT, ...  transport
//	SMARTAPI_CLIENT_CODE, SMARTAPI_PIN, SMARTAPI_TOTP_SECRET    credentials
//	SMARTAPI_LOG_LEVEL, SMARTAPI_LOG_FORMAT                     logging
//	SMARTAPI_SESSION_STORE, SMARTAPI_SESSION_TTL                session store
//	SMARTAPI_REDIS_HOST, SMARTAPI_REDIS_PORT, ...               redis
func (c *Config) ApplyEnv(environ []string) error {
	c.fillDefaults()

	overlays := []struct {
		prefix string
		target interface{}
	}{
		{EnvPrefix, c.SmartAPI},
		{EnvPrefix, c.Credentials},
		{EnvPrefix + "LOG_", c.Log},
		{EnvPrefix + "SESSION_", c.Session},
		{EnvPrefix + "REDIS_", c.Session.Redis},
		{EnvPrefix + "ORDER_STATUS_", c.OrderStatus},
	}
	for _, o := range overlays {
		values := envValues(environ, o.prefix)
		if len(values) == 0 {
			continue
		}
		if err := decode(values, o.target); err != nil {
			return errors.Wrapf(err, "apply %s* environment", o.prefix)
		}
	}
	return nil
}

// envValues collects variables under prefix, keyed by the lower-cased rest.
func envValues(environ []string, prefix string) map[string]interface{} {
	values := make(map[string]interface{})
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		values[strings.ToLower(strings.TrimPrefix(key, prefix))] = value
	}
	return values
}

func decode(input map[string]interface{}, result interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           result,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
