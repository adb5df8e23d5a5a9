package config

import "path/filepath"

const (
	// Global layout under POSTBOT_HOME.
	ConfigFilePath = "config.toml"
	EnvFilePath    = ".env"
	DataDirPath    = "data"

	// Data layout under POSTBOT_HOME/data/.
	ManualImagesDirPath    = "BOTimg"
	GeneratedImagesDirPath = "generated"
	StateFileName          = "last_image.json"
	RunLockFileName        = "run.lock"
)

func homeConfigPath(home string) string {
	return filepath.Join(home, ConfigFilePath)
}

func homeEnvPath(home string) string {
	return filepath.Join(home, EnvFilePath)
}

func defaultHomePath(home string) string {
	return filepath.Join(home, ".postbot")
}

func homeDataPath(home string) string {
	return filepath.Join(home, DataDirPath)
}

func (c *Config) ConfigPath() string {
	return homeConfigPath(c.HomeDir)
}

func (c *Config) DataDir() string {
	return homeDataPath(c.HomeDir)
}

func (c *Config) StatePath() string {
	return filepath.Join(c.DataDir(), StateFileName)
}

func (c *Config) RunLockPath() string {
	return filepath.Join(c.DataDir(), RunLockFileName)
}

func (c *Config) defaultImageDir() string {
	return filepath.Join(c.DataDir(), ManualImagesDirPath)
}

func (c *Config) defaultGeneratedDir() string {
	return filepath.Join(c.DataDir(), GeneratedImagesDirPath)
}
