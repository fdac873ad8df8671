package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/puffious/rclone-pool/internal/poolerrors"
)

func TestExitCodeMapsKindsToContract(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitNotFound, exitCode(poolerrors.New(poolerrors.KindManifestNotFound, "x")))
	assert.Equal(t, exitMisuse, exitCode(poolerrors.New(poolerrors.KindConfigInvalid, "x")))
	assert.Equal(t, exitMisuse, exitCode(poolerrors.New(poolerrors.KindAlreadyExists, "x")))
	assert.Equal(t, exitPartial, exitCode(poolerrors.New(poolerrors.KindChunkMissing, "x")))
	assert.Equal(t, exitGeneric, exitCode(poolerrors.New(poolerrors.KindTransportError, "x")))
	assert.Equal(t, exitGeneric, exitCode(assert.AnError))
}

func TestSplitCSVTrimsAndDropsEmpty(t *testing.T) {
	assert.Equal(t, []string{"r0:", "r1:"}, splitCSV(" r0: , r1: "))
	assert.Nil(t, splitCSV(""))
}

func TestDirOfFindsParent(t *testing.T) {
	assert.Equal(t, "/etc/rclonepool", dirOf("/etc/rclonepool/rclonepool.json"))
	assert.Equal(t, ".", dirOf("rclonepool.json"))
}
