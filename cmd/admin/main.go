package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/models"
)

// admin is a bootstrap CLI for the identity data the socket core
// depends on. The real CRUD API owns this data in production; the CLI
// exists so a development instance has users, channels and DMs to
// authenticate and relay against.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "create-user":
		if len(os.Args) < 3 {
			usage()
		}
		user := models.User{Username: os.Args[2]}
		if err := db.Create(&user).Error; err != nil {
			log.Fatal().Err(err).Msg("create user failed")
		}
		fmt.Printf("user %s id=%s\n", user.Username, user.ID)

	case "create-channel":
		if len(os.Args) < 4 {
			usage()
		}
		ch := models.Channel{Name: os.Args[2], Members: pq.StringArray(os.Args[3:])}
		if err := db.Create(&ch).Error; err != nil {
			log.Fatal().Err(err).Msg("create channel failed")
		}
		fmt.Printf("channel %s id=%s members=%d\n", ch.Name, ch.ID, len(ch.Members))

	case "create-dm":
		if len(os.Args) < 4 {
			usage()
		}
		dm := models.DirectChannel{UserAID: os.Args[2], UserBID: os.Args[3]}
		if err := db.Create(&dm).Error; err != nil {
			log.Fatal().Err(err).Msg("create dm failed")
		}
		fmt.Printf("dm id=%s\n", dm.ID)

	default:
		usage()
	}
}

func usage() {
	fmt.Println(`Usage: admin <command> [args]
  create-user <username>
  create-channel <name> <member-id>...
  create-dm <user-a-id> <user-b-id>`)
	os.Exit(1)
}
