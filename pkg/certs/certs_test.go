// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package certs

import (
	"crypto/tls"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/hello-otel/pkg/testkit"
)

func TestValidateCACertificate(t *testing.T) {
	t.Parallel()

	files := testkit.WriteMTLSFiles(t)
	caPEM, err := os.ReadFile(files.CACert)
	require.NoError(t, err)
	keyPEM, err := os.ReadFile(files.ClientKey)
	require.NoError(t, err)

	tests := []struct {
		name    string
		data    []byte
		wantErr string
	}{
		{name: "valid CA", data: caPEM},
		{name: "not PEM", data: []byte("hello"), wantErr: "no PEM data"},
		{name: "private key block", data: keyPEM, wantErr: "not a certificate"},
		{
			name:    "garbage certificate",
			data:    []byte("-----BEGIN CERTIFICATE-----\nAAAA\n-----END CERTIFICATE-----\n"),
			wantErr: "failed to parse certificate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateCACertificate(tt.data)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewClientTLSConfig(t *testing.T) {
	t.Parallel()

	files := testkit.WriteMTLSFiles(t)

	cfg, err := NewClientTLSConfig(files.CACert, files.ClientCert, files.ClientKey)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.NotNil(t, cfg.RootCAs)
	assert.Len(t, cfg.Certificates, 1)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
}

func TestNewClientTLSConfig_Errors(t *testing.T) {
	t.Parallel()

	files := testkit.WriteMTLSFiles(t)
	garbage := testkit.WriteFile(t, "garbage.pem", "not a pem file")

	tests := []struct {
		name     string
		ca       string
		cert     string
		key      string
		contains string
	}{
		{"missing CA file", "/nonexistent/ca.pem", files.ClientCert, files.ClientKey, "failed to read CA certificate"},
		{"malformed CA file", garbage, files.ClientCert, files.ClientKey, "invalid CA certificate"},
		{"missing client cert", files.CACert, "/nonexistent/client.pem", files.ClientKey, "failed to load client key pair"},
		{"malformed client key", files.CACert, files.ClientCert, garbage, "failed to load client key pair"},
		{"mismatched key pair", files.CACert, files.CACert, files.ClientKey, "failed to load client key pair"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := NewClientTLSConfig(tt.ca, tt.cert, tt.key)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
