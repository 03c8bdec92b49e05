package localstore

import "context"

type prefixed struct {
	Storage
	prefix string
}

// WithPrefix namespaces every key as "<prefix>_<key>". An empty prefix
// returns s unchanged.
func WithPrefix(s Storage, prefix string) Storage {
	if prefix == "" {
		return s
	}
	return &prefixed{Storage: s, prefix: prefix + "_"}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.Storage.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.Storage.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.Storage.Delete(ctx, p.prefix+key)
}
