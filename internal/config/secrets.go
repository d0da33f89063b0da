// Package config provides YAML field types shared by the aggregator's
// config files.
package config

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"strings"
)

// RSAPrivateKey wraps *rsa.PrivateKey and implements yaml.Unmarshaler.
// The value may be PEM text directly (cloud deployments inject it via
// env) or base64-encoded PEM.
type RSAPrivateKey struct {
	*rsa.PrivateKey
}

// UnmarshalYAML decodes an RSA private key from PEM or base64 PEM.
func (k *RSAPrivateKey) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var encoded string
	if err := unmarshal(&encoded); err != nil {
		return err
	}

	if encoded == "" {
		return nil
	}

	key, err := DecodeRSAPrivateKey(encoded)
	if err != nil {
		return fmt.Errorf("decode RSA private key: %w", err)
	}

	k.PrivateKey = key
	return nil
}

// DecodeRSAPrivateKey parses a private key from PEM text or
// base64-encoded PEM.
func DecodeRSAPrivateKey(encoded string) (*rsa.PrivateKey, error) {
	pemBytes := []byte(encoded)
	if !strings.HasPrefix(strings.TrimSpace(encoded), "-----BEGIN") {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("base64 decode: %w", err)
		}
		pemBytes = decoded
	}

	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	// Try PKCS#1 first, then PKCS#8
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	keyAny, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	key, ok := keyAny.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA private key")
	}

	return key, nil
}
