package regsdk

import (
	"path/filepath"
)

// Root directories.
const (
	RegistryDirName = "registry" // Registry state (descriptors, node statuses)
	QueueDirName    = "queue"    // Submission queue (pending transactions, batches)
)

// Subdirectories under registry/
const (
	RegistryDBDirName = "db" // Main registry database
)

// GenesisFileName is the genesis document the service loads on first start.
const GenesisFileName = "genesis.json"

func RegistryPath(dataDir string) string {
	return filepath.Join(dataDir, RegistryDirName)
}

func RegistryDBPath(dataDir string) string {
	return filepath.Join(RegistryPath(dataDir), RegistryDBDirName)
}

func QueueDBPath(dataDir string) string {
	return filepath.Join(dataDir, QueueDirName)
}

func GenesisFilePath(dataDir string) string {
	return filepath.Join(dataDir, GenesisFileName)
}
