package configuration

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/myscheduling/seedload/pkg/logging"
)

var DefaultEnvFiles = []string{".env", ".env.local"}

// LoadEnv loads the env files that exist, looking first in the working
// directory and then at the nearest go.mod root above it.
func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fs.FileExists(file) {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		root, ok := findModuleRoot()
		if ok {
			for _, file := range envFiles {
				candidate := filepath.Join(root, file)
				if fs.FileExists(candidate) {
					existingFiles = append(existingFiles, candidate)
				}
			}
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

func findModuleRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

type InputOptions struct {
	ExcelPath string `env:"SEEDLOAD_EXCEL_PATH" envDefault:"myScheduling Load.xlsx"`
	SheetName string `env:"SEEDLOAD_SHEET" envDefault:"Data" validate:"required"`
}

type TenantOptions struct {
	Name            string `env:"TENANT_NAME" envDefault:"Aleut Federal" validate:"required"`
	EmailDomain     string `env:"EMAIL_DOMAIN" envDefault:"aleutfederal.com" validate:"required,fqdn"`
	RootManagerName string `env:"ROOT_MANAGER_NAME" envDefault:"Geoff Vaughan"`
	ActiveFlagToken string `env:"ACTIVE_FLAG_TOKEN" envDefault:"Y" validate:"required"`
}

type AdminOptions struct {
	Email       string `env:"ADMIN_EMAIL" envDefault:"admin@admin.com" validate:"required,email"`
	DisplayName string `env:"ADMIN_DISPLAY_NAME" envDefault:"Platform Admin" validate:"required"`
	Password    string `env:"ADMIN_PASSWORD" envDefault:"Admin@123" validate:"required,max=72"`
	JobTitle    string `env:"ADMIN_JOB_TITLE" envDefault:"Platform Admin"`
	Department  string `env:"ADMIN_DEPARTMENT" envDefault:"Admin"`
}

type BatchOptions struct {
	AssignmentPageSize int `env:"ASSIGNMENT_PAGE_SIZE" envDefault:"500" validate:"gt=0,lte=4000"`
	ActualsPageSize    int `env:"ACTUALS_PAGE_SIZE" envDefault:"2000" validate:"gt=0,lte=5000"`
}

type DatabaseSourceOptions struct {
	AppSettingsPath      string `env:"APPSETTINGS_PATH" envDefault:"backend/src/MyScheduling.Api/appsettings.Development.json"`
	ConnectionStringName string `env:"CONNECTION_STRING_NAME" envDefault:"DefaultConnection"`
	ConnectionString     string `env:"DB_CONNECTION_STRING"`
}

// Configuration is built once per process and passed down explicitly.
type Configuration struct {
	Input    InputOptions
	Tenant   TenantOptions
	Admin    AdminOptions
	Batch    BatchOptions
	DBSource DatabaseSourceOptions

	LogLevel        string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=silent error warn info debug"`
	LogPath         string `env:"LOG_PATH"`
	MetricsTextfile string `env:"METRICS_TEXTFILE"`

	logCloser io.Closer
	logger    *logrus.Logger
}

func Load(envFiles []string) (*Configuration, error) {
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	c := &Configuration{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := c.initLogger(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Configuration) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Configuration) initLogger() error {
	level := logging.ParseLevel(c.LogLevel)
	if strings.TrimSpace(c.LogPath) == "" {
		c.logger = logging.ConsoleLogger(level)
		return nil
	}
	closer, logger, err := logging.FileLogger(level, c.LogPath)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", c.LogPath, err)
	}
	c.logCloser = closer
	c.logger = logger
	return nil
}

func (c *Configuration) Logger() *logrus.Logger {
	if c.logger == nil {
		c.logger = logging.ConsoleLogger(logging.ParseLevel(c.LogLevel))
	}
	return c.logger
}

// Database resolves the connection descriptor: DB_CONNECTION_STRING wins over
// the appsettings file.
func (c *Configuration) Database() (*DatabaseOptions, error) {
	raw := strings.TrimSpace(c.DBSource.ConnectionString)
	if raw == "" {
		s, err := ReadConnectionString(c.DBSource.AppSettingsPath, c.DBSource.ConnectionStringName)
		if err != nil {
			return nil, err
		}
		raw = s
	}
	return ParseConnectionString(raw)
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logCloser != nil {
		if err := c.logCloser.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
		c.logCloser = nil
	}
}
