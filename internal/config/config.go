package config

import (
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config carries every knob of a pipeline run. Defaults describe the demo
// setup: SQLite file stores next to the binary and exports under outputs/.
type Config struct {
	Env string `yaml:"env" env:"APP_ENV" env-default:"local"`

	SourceDriver    string `yaml:"source_driver" env:"SOURCE_DRIVER" env-default:"sqlite"`
	SourceDSN       string `yaml:"source_dsn" env:"SOURCE_DSN" env-default:"source_demo.db"`
	WarehouseDriver string `yaml:"warehouse_driver" env:"WAREHOUSE_DRIVER" env-default:"sqlite"`
	WarehouseDSN    string `yaml:"warehouse_dsn" env:"WAREHOUSE_DSN" env-default:"dw_demo.db"`

	EmployeesCSV  string `yaml:"employees_csv" env:"EMPLOYEES_CSV" env-default:"mitarbeiter.csv"`
	SuppliersXLSX string `yaml:"suppliers_xlsx" env:"SUPPLIERS_XLSX" env-default:"lieferanten.xlsx"`

	CSVExport     string `yaml:"csv_export" env:"CSV_EXPORT" env-default:"outputs/kpi_export.csv"`
	XLSXExport    string `yaml:"xlsx_export" env:"XLSX_EXPORT" env-default:"outputs/kpi_export.xlsx"`
	ParquetExport string `yaml:"parquet_export" env:"PARQUET_EXPORT" env-default:"outputs/kpi_export.parquet"`
	DashboardHTML string `yaml:"dashboard_html" env:"DASHBOARD_HTML" env-default:"outputs/dashboard.html"`
}

// MustLoad reads the config file named by CONFIG_PATH (falling back to
// ./config/local.yaml) merged with environment variables. A missing file is
// not an error: environment plus defaults are enough to run the demo.
func MustLoad() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/local.yaml"
	}

	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			log.Fatalf("cannot read config %s: %s", path, err)
		}
		return &cfg
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("cannot read config from environment: %s", err)
	}

	return &cfg
}
