package cmd

import (
	"fmt"
	"log"

	"github.com/mohamadaskravi2050-crypto/Muzic56/config"
	"github.com/mohamadaskravi2050-crypto/Muzic56/db"
	"github.com/mohamadaskravi2050-crypto/Muzic56/storage"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check connectivity to MySQL, Redis and the file store",
	Long:  `Verify that the configured MySQL database, Redis instance and storage backend are reachable.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		fmt.Printf("MySQL %s:%s/%s ... ", cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("FAILED: %v", err)
		}
		db.DB.Close()
		fmt.Println("ok")

		fmt.Printf("Redis %s:%s ... ", cfg.RedisHost, cfg.RedisPort)
		if err := db.ConnectRedis(cfg); err != nil {
			fmt.Printf("unavailable: %v\n", err)
		} else {
			db.CloseRedis()
			fmt.Println("ok")
		}

		fmt.Printf("Storage backend %q ... ", cfg.StorageBackend)
		if cfg.StorageBackend == "minio" {
			if _, err := storage.NewMinioStore(cfg); err != nil {
				log.Fatalf("FAILED: %v", err)
			}
		} else {
			if _, err := storage.NewLocalStore(cfg.LocalMediaDir); err != nil {
				log.Fatalf("FAILED: %v", err)
			}
		}
		fmt.Println("ok")
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
