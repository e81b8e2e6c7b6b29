package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "CATALOG_CONFIG_FILE"

// The moderation persist processor's goka group is the group table
// name itself (broker.topics.moderation_table), so it carries no
// consumer group entry here.
type consumers struct {
	IntakeGateGroup  string `mapstructure:"intake_gate_group"`
	IntakeSaverGroup string `mapstructure:"intake_saver_group"`
}

type topics struct {
	SupplierProducts string `mapstructure:"supplier_products"`
	ModerationStream string `mapstructure:"moderation_stream"`
	ModerationTable  string `mapstructure:"moderation_table"`
	CatalogIntake    string `mapstructure:"catalog_intake"`
	CatalogEvents    string `mapstructure:"catalog_events"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
}

type hdfs struct {
	Address string `mapstructure:"address"`
	BaseDir string `mapstructure:"base_dir"`
}

type smtp struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	From      string `mapstructure:"from"`
	VerifyURL string `mapstructure:"verify_url"`
}

type auth struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	TokenTTLMin int    `mapstructure:"token_ttl_min"`
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	SQLDB          string     `mapstructure:"sql_db"`
	Broker         broker     `mapstructure:"broker"`
	HDFS           hdfs       `mapstructure:"hdfs"`
	SMTP           smtp       `mapstructure:"smtp"`
	Auth           auth       `mapstructure:"auth"`
}

func Load() Config {
	viper.SetConfigFile(getConfigFilepath())

	err := viper.ReadInConfig()
	if err != nil {
		die(err)
	}

	var cfg Config
	err = viper.UnmarshalExact(&cfg)
	if err != nil {
		die(err)
	}

	return cfg
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	template := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	SQLDB=%q

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	Topics:
		SupplierProducts=%q
		ModerationStream=%q
		ModerationTable=%q
		CatalogIntake=%q
		CatalogEvents=%q
	Consumers:
		IntakeGateGroup=%q
		IntakeSaverGroup=%q

	HDFS:
	Address=%q
	BaseDir=%q

	SMTP:
	Host=%q
	Port=%d
	From=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(template, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.SQLDB,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.Topics.SupplierProducts,
		c.Broker.Topics.ModerationStream,
		c.Broker.Topics.ModerationTable,
		c.Broker.Topics.CatalogIntake,
		c.Broker.Topics.CatalogEvents,
		c.Broker.Consumers.IntakeGateGroup,
		c.Broker.Consumers.IntakeSaverGroup,
		c.HDFS.Address,
		c.HDFS.BaseDir,
		c.SMTP.Host,
		c.SMTP.Port,
		c.SMTP.From,
	)
}
