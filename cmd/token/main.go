package main

import (
	"flag"
	"fmt"
	"log"

	"transparencia/internal/auth"
	"transparencia/internal/domain"
)

// Выпускает токен сотрудника для локальной разработки и ручных проверок API
func main() {
	configPath := flag.String("config", ".auth.env", "path to auth config")
	subject := flag.String("sub", "", "employee identifier")
	role := flag.String("role", string(domain.RoleEditor), "ADMIN, EDITOR or AUTHOR")
	flag.Parse()

	cfg, err := auth.NewConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load auth config: %v", err)
	}

	token, err := auth.NewVerifier(cfg).GenerateToken(domain.Caller{ID: *subject, Role: domain.Role(*role)})
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
