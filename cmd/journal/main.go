package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"hazardcam/internal/repository/sqlite"
)

func main() {
	dbPath := flag.String("db", "data/hazardcam.db", "Database path")
	limit := flag.Int("limit", 20, "Number of recent alerts and sessions to show")
	clearAlerts := flag.Bool("clear", false, "Delete the alert history")
	flag.Parse()

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	alertRepo := sqlite.NewAlertRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)

	if *clearAlerts {
		if err := alertRepo.DeleteAll(); err != nil {
			log.Fatalf("Failed to clear alerts: %v", err)
		}
		fmt.Println("✅ Alert history cleared")
		return
	}

	counts, err := alertRepo.CountByLabel()
	if err != nil {
		log.Fatalf("Failed to count alerts: %v", err)
	}
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	fmt.Printf("📊 Alerts per label:\n")
	for _, label := range labels {
		fmt.Printf("   - %s: %d\n", label, counts[label])
	}

	alerts, err := alertRepo.GetRecent(*limit)
	if err != nil {
		log.Fatalf("Failed to read alerts: %v", err)
	}
	fmt.Printf("\n🚨 Recent alerts:\n")
	for _, a := range alerts {
		fmt.Printf("   %s  %-16s %5.1f%%  %s\n", a.Timestamp.Local().Format(time.DateTime), a.Label, a.Confidence*100, a.ClientID)
	}

	sessions, err := sessionRepo.GetRecent(*limit)
	if err != nil {
		log.Fatalf("Failed to read sessions: %v", err)
	}
	fmt.Printf("\n🔌 Recent sessions:\n")
	for _, s := range sessions {
		duration := "open"
		if s.DisconnectedAt != nil {
			duration = s.DisconnectedAt.Sub(s.ConnectedAt).Round(time.Second).String()
		}
		fmt.Printf("   %s  %-36s %-10s %s\n", s.ConnectedAt.Local().Format(time.DateTime), s.ClientID, duration, s.Endpoint)
	}
}
