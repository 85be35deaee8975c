package supabase

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

// JWKS represents the JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// SigningKey is a usable RSA verification key
type SigningKey struct {
	Kid string
	Alg string
	Key *rsa.PublicKey
}

// KeySet is an immutable, ordered set of signing keys
type KeySet struct {
	keys []SigningKey
}

// Lookup scans for the first key whose kid matches
func (s *KeySet) Lookup(kid string) (SigningKey, bool) {
	for _, k := range s.keys {
		if k.Kid == kid {
			return k, true
		}
	}
	return SigningKey{}, false
}

// Len returns the number of usable keys
func (s *KeySet) Len() int {
	return len(s.keys)
}

// Kids lists key identifiers in published order
func (s *KeySet) Kids() []string {
	kids := make([]string, len(s.keys))
	for i, k := range s.keys {
		kids[i] = k.Kid
	}
	return kids
}

var rsaAlgorithms = map[string]bool{"RS256": true, "RS384": true, "RS512": true}

// ParseKeySet decodes a JWKS document. Non-RSA and signing-irrelevant keys
// are skipped; a document with no usable key is an error.
func ParseKeySet(data []byte) (*KeySet, error) {
	var doc JWKS
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	set := &KeySet{}
	for _, jwk := range doc.Keys {
		if jwk.Kty != "RSA" || jwk.Kid == "" || (jwk.Use != "" && jwk.Use != "sig") {
			continue
		}
		alg := jwk.Alg
		if alg == "" {
			alg = "RS256"
		}
		if !rsaAlgorithms[alg] {
			continue
		}
		pub, err := jwkToRSAPublicKey(jwk)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", jwk.Kid, err)
		}
		set.keys = append(set.keys, SigningKey{Kid: jwk.Kid, Alg: alg, Key: pub})
	}

	if len(set.keys) == 0 {
		return nil, errors.New("JWKS contains no usable RSA signing keys")
	}
	return set, nil
}

// jwkToRSAPublicKey converts a JWK to an RSA public key
func jwkToRSAPublicKey(jwk JWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}
	if len(nBytes) == 0 {
		return nil, errors.New("empty modulus")
	}

	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 {
		return nil, errors.New("invalid exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}
