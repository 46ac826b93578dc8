package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xenogy/bancheck"
)

func main() {
	// Profile URLs to classify. The trailing segment is reported back
	// as the id of each result row.
	urls := []string{}
	for i := range 100 {
		urls = append(urls, "https://steamcommunity.com/profiles/7656119800000"+strconv.Itoa(i))
	}

	proxies := []string{
		"203.0.113.10:8080",
		"user:pass@203.0.113.11:8080",
	}

	store := bancheck.NewStore()
	engine := bancheck.NewEngine(store, nil)
	engine.ServeWeb(8080)

	go engine.Run("demo", urls, proxies, bancheck.Params{
		LogicalBatchSize:     10,
		MaxConcurrentBatches: 2,
		MaxWorkersPerBatch:   5,
		MaxRetriesPerURL:     1,
		RetryDelaySeconds:    2,
	})

	for {
		record := store.Get("demo")
		if record != nil {
			bancheck.BroadcastTask(record)
			fmt.Printf("status=%s progress=%.2f%%\n", record.Status, record.Progress)
			if record.Status != bancheck.StatusProcessing {
				break
			}
		}
		time.Sleep(time.Second)
	}

	record := store.Get("demo")
	for _, row := range record.Results {
		fmt.Printf("%s  %s  %s\n", row.SteamID, row.StatusSummary, row.Details)
	}

	if err := bancheck.WriteReport("results.xlsx", record); err != nil {
		fmt.Println("export failed:", err)
	}
}
