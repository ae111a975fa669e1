package pkgconfig

// Config is the read-only view of application configuration.
type Config interface {
	GetInt(key string) int64
	GetBool(key string) bool
	GetFloat(key string) float64
	GetString(key string) string
	GetBinary(key string) []byte
	GetArray(key string) []string
	GetMap(key string) map[string]string
	Close() error
}

// Option customizes how a Config implementation is built.
type Option func(*options)

type options struct {
	envPrefix string
	defaults  map[string]any
}

// WithEnvPrefix lets environment variables override file values.
//
// Keys are upper-cased and dots become underscores, so with prefix "TABCLEAN"
// the key "tabular.preview_rows" is read from TABCLEAN_TABULAR_PREVIEW_ROWS.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithDefaults registers fallback values used when neither the file nor the
// environment provide a key.
func WithDefaults(defaults map[string]any) Option {
	return func(o *options) {
		if o.defaults == nil {
			o.defaults = make(map[string]any, len(defaults))
		}
		for k, v := range defaults {
			o.defaults[k] = v
		}
	}
}
