// Command seed loads the demo catalog and a batch of generated accounts into
// Mongo for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"petmarket/config"
	"petmarket/internal/models"
	"petmarket/internal/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const mockPassword = "coder123"

var demoProducts = []models.Product{
	{Title: "Premium Dog Food", Description: "Grain-free kibble, 12kg bag", Code: "DOGF001", Price: 45000, Stock: 25, Category: "Food"},
	{Title: "Cat Scratching Post", Description: "Sisal post with platform", Code: "CATS001", Price: 95000, Stock: 15, Category: "Furniture"},
	{Title: "Aquarium Starter Kit", Description: "60l tank with filter and light", Code: "AQUA001", Price: 150000, Stock: 10, Category: "Aquatics"},
	{Title: "Bird Cage Deluxe", Description: "Large cage for parakeets", Code: "BIRD001", Price: 30000, Stock: 30, Category: "Housing"},
	{Title: "Smart Pet Tracker", Description: "GPS collar attachment", Code: "TRAK001", Price: 250000, Stock: 12, Category: "Tech"},
}

var (
	firstNames = []string{"Ana", "Bruno", "Carla", "Diego", "Elena", "Franco", "Gina", "Hugo", "Irene", "Javier"}
	lastNames  = []string{"Alvarez", "Benitez", "Castro", "Dominguez", "Esposito", "Fernandez", "Gomez", "Herrera"}
)

func main() {
	userCount := flag.Int("users", 10, "number of mock users to create")
	flag.Parse()

	cfg := config.Load()

	db, err := store.NewStore(cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatalf("Failed to connect to mongo: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	created := 0
	for i := range demoProducts {
		p := demoProducts[i]
		p.Status = true
		p.Thumbnails = []string{}
		if _, err := db.CreateProduct(ctx, &p); err != nil {
			log.Printf("Skipping product %s: %v", p.Code, err)
			continue
		}
		created++
	}
	log.Printf("Seed: %d products created", created)

	hash, err := bcrypt.GenerateFromPassword([]byte(mockPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash mock password: %v", err)
	}

	created = 0
	for i := 0; i < *userCount; i++ {
		first := firstNames[rand.Intn(len(firstNames))]
		last := lastNames[rand.Intn(len(lastNames))]
		role := models.RoleUser
		if rand.Intn(5) == 0 {
			role = models.RoleAdmin
		}

		user, err := db.CreateUser(ctx, &models.User{
			FirstName: first,
			LastName:  last,
			Email:     mockEmail(first, last),
			Age:       18 + rand.Intn(62),
			Password:  string(hash),
			Role:      role,
		})
		if err != nil {
			log.Printf("Skipping user: %v", err)
			continue
		}

		cart, err := db.CreateCart(ctx)
		if err != nil {
			log.Printf("Failed to create cart for %s: %v", user.Email, err)
			continue
		}
		if err := db.SetUserCart(ctx, user.ID.Hex(), cart.ID); err != nil {
			log.Printf("Failed to attach cart for %s: %v", user.Email, err)
			continue
		}
		created++
	}
	log.Printf("Seed: %d users created (password %q)", created, mockPassword)
}

func mockEmail(first, last string) string {
	suffix := strings.Split(uuid.New().String(), "-")[0]
	return strings.ToLower(fmt.Sprintf("%s.%s.%s@example.com", first, last, suffix))
}
