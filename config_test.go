/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{port: 8080, codeLength: 6, checkpointCount: 2}
	assert.NoError(t, valid.validate())

	tlsCertOnly := valid
	tlsCertOnly.tlsCert = "/tmp/cert.pem"
	assert.Error(t, tlsCertOnly.validate())

	badPort := valid
	badPort.port = 0
	assert.Error(t, badPort.validate())

	shortCode := valid
	shortCode.codeLength = 2
	assert.Error(t, shortCode.validate())

	noCheckpoints := valid
	noCheckpoints.checkpointCount = 0
	assert.Error(t, noCheckpoints.validate())
}

func TestConfigScheme(t *testing.T) {
	plain := Config{}
	assert.Equal(t, "http", plain.scheme())

	tls := Config{tlsCert: "/tmp/cert.pem", tlsKey: "/tmp/key.pem"}
	assert.Equal(t, "https", tls.scheme())
}
