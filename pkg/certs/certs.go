// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package certs loads and validates the PEM material used for mutual TLS
// with the telemetry backend.
package certs

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stacklok/hello-otel/pkg/logger"
)

// ValidateCACertificate validates that the provided data contains a valid PEM-encoded certificate
func ValidateCACertificate(certData []byte) error {
	block, _ := pem.Decode(certData)
	if block == nil {
		return fmt.Errorf("no PEM data found in certificate file")
	}

	if block.Type != "CERTIFICATE" {
		return fmt.Errorf("PEM block is not a certificate (found: %s)", block.Type)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}

	if !cert.IsCA {
		// Some private collectors are fronted by self-signed leaf certificates.
		logger.Warnf("Certificate is not marked as a CA certificate, but proceeding anyway")
	}

	return nil
}

// LoadCertPool reads the PEM bundle at caFile into a new certificate pool.
func LoadCertPool(caFile string) (*x509.CertPool, error) {
	// #nosec G304: path comes from operator-supplied configuration
	data, err := os.ReadFile(filepath.Clean(caFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate file %s: %w", caFile, err)
	}

	if err := ValidateCACertificate(data); err != nil {
		return nil, fmt.Errorf("invalid CA certificate %s: %w", caFile, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no certificates could be parsed from %s", caFile)
	}
	return pool, nil
}

// NewClientTLSConfig builds a client TLS configuration that trusts the CA
// bundle at caFile and presents the key pair at certFile/keyFile.
func NewClientTLSConfig(caFile, certFile, keyFile string) (*tls.Config, error) {
	pool, err := LoadCertPool(caFile)
	if err != nil {
		return nil, err
	}

	clientCert, err := tls.LoadX509KeyPair(filepath.Clean(certFile), filepath.Clean(keyFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load client key pair (%s, %s): %w", certFile, keyFile, err)
	}

	return &tls.Config{
		RootCAs:      pool,
		Certificates: []tls.Certificate{clientCert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
