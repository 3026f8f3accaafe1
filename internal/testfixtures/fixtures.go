package testfixtures

import (
	"fmt"
	"time"

	"github.com/example/weekly-events/internal/schedule"
)

var referenceTime = time.Date(2024, time.March, 14, 9, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
// 2024-03-14 is a Thursday.
func ReferenceTime() time.Time {
	return referenceTime
}

// Templates returns a deterministic template catalog. Capacity defaults to
// two so capacity edge cases stay cheap to set up.
func Templates(count int) []schedule.Template {
	templates := make([]schedule.Template, 0, count)
	for i := 0; i < count; i++ {
		templates = append(templates, schedule.Template{
			ID:       fmt.Sprintf("template-%d", i),
			Name:     fmt.Sprintf("Class %d", i),
			Time:     fmt.Sprintf("%02d:00", 8+i),
			Duration: "60 min",
			Capacity: 2,
		})
	}
	return templates
}

// Hosts returns a deterministic host pool.
func Hosts(count int) []string {
	hosts := make([]string, 0, count)
	for i := 0; i < count; i++ {
		hosts = append(hosts, fmt.Sprintf("Host %d", i))
	}
	return hosts
}
