// Package cache persists the last successful discovery per remote
// device address to disk, so `btsdp discover --cached` can show results
// without a live socket. It is an ambient CLI convenience, not a core
// SDP concern: grounded on nmxact/nmp's CBOR body wire format
// (BodyBytes/DecodeRspBody), repurposed here as a file format instead of
// a wire format via github.com/ugorji/go/codec.
package cache

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ugorji/go/codec"

	"github.com/steveford-obs/btsdp/discover"
	"github.com/steveford-obs/btsdp/sdp"
)

// Protocol is a flattened, CBOR-friendly snapshot of a
// discover.ProtocolDescriptor: the params Data Element is re-serialized
// to its raw encoded bytes rather than carried as a live value.
type Protocol struct {
	UUID   []byte `codec:"uuid"`
	Params []byte `codec:"params"`
}

// Profile is a flattened discover.ProfileDescriptor.
type Profile struct {
	UUID    []byte `codec:"uuid"`
	Version uint16 `codec:"version"`
}

// Service is a flattened, display-oriented snapshot of a
// discover.Service. It intentionally does not round-trip back into a
// live discover.Service: the cache exists to show a prior discovery's
// shape, not to feed the A2DP interpreter.
type Service struct {
	Handle    uint32     `codec:"handle"`
	Classes   [][]byte   `codec:"classes"`
	Profiles  []Profile  `codec:"profiles"`
	Protocols []Protocol `codec:"protocols"`
}

// FromDiscoverServices flattens a completed discovery into its cache
// representation.
func FromDiscoverServices(services []*discover.Service) ([]Service, error) {
	out := make([]Service, 0, len(services))

	for _, svc := range services {
		cs := Service{Handle: svc.Handle}

		for _, c := range svc.Classes {
			cs.Classes = append(cs.Classes, c.CanonicalBytes())
		}
		for _, p := range svc.Profiles {
			cs.Profiles = append(cs.Profiles, Profile{UUID: p.UUID.CanonicalBytes(), Version: p.Version})
		}
		for _, p := range svc.Protocols {
			var params []byte
			if p.Params != nil {
				w := sdp.NewWriter()
				if err := w.PushElement(p.Params); err != nil {
					return nil, err
				}
				params = w.Bytes()
			}
			cs.Protocols = append(cs.Protocols, Protocol{UUID: p.UUID.CanonicalBytes(), Params: params})
		}

		out = append(out, cs)
	}

	return out, nil
}

// Store is a CBOR-encoded map of device address to its last discovery.
type Store struct {
	mu      sync.Mutex
	path    string
	entries map[string][]Service
}

// Open returns a Store backed by path. Call Load to populate it from
// disk.
func Open(path string) *Store {
	return &Store{path: path, entries: make(map[string][]Service)}
}

func cborHandle() *codec.CborHandle { return &codec.CborHandle{} }

// Load reads the store's file, if it exists.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	dec := codec.NewDecoder(f, cborHandle())
	return dec.Decode(&s.entries)
}

// Save writes the store to disk, creating its directory if needed.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := codec.NewEncoder(f, cborHandle())
	return enc.Encode(s.entries)
}

// Put records the latest discovery for address.
func (s *Store) Put(address string, services []Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[address] = services
}

// Get returns the cached discovery for address, if any.
func (s *Store) Get(address string) ([]Service, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[address]
	return v, ok
}
