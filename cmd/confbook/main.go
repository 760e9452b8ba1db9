// Command confbook seeds the booking core with demo data, prints the
// resulting conference and user state, and can keep the waitlist scheduler
// running until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"confbook/config"
	"confbook/internal/domain"
	"confbook/internal/services"
)

var (
	runScheduler bool
	tickInterval time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "confbook",
	Short: "Conference booking and waitlist demo driver",
	Long: `Seeds the in-memory booking core with sample users and conferences,
books a few slots, and prints the resulting state. With --run the waitlist
scheduler keeps ticking until interrupted.`,
	RunE: runDemo,
}

func init() {
	rootCmd.Flags().BoolVar(&runScheduler, "run", false,
		"keep the waitlist scheduler running until interrupted")
	rootCmd.Flags().DurationVar(&tickInterval, "tick-interval", 0,
		"override the scheduler tick interval (default from TICK_INTERVAL)")
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger()

	interval := cfg.TickInterval
	if tickInterval > 0 {
		interval = tickInterval
	}

	regs := services.NewRegistries()
	scheduler := services.NewWaitlistScheduler(regs, cfg.OfferTimeout, interval, logger)
	conferences := services.NewConferenceService(regs, cfg.MaxTopics, cfg.SnapshotTTL, logger)
	users := services.NewUserService(regs, cfg.MaxInterests, logger)
	bookings := services.NewBookingService(regs, scheduler, logger)

	if err := seed(conferences, users, bookings); err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	printState(conferences, users)

	if !runScheduler {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	scheduler.Run(ctx)
	return nil
}

// seed creates two users and two conferences and books both users onto the
// first conference, leaving the second user waitlisted.
func seed(conferences domain.ConferenceService, users domain.UserService, bookings domain.BookingService) error {
	day := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	if _, err := users.Create("aryan", []string{"software architecture"}); err != nil {
		return err
	}
	if _, err := users.Create("harsh", []string{"robotics"}); err != nil {
		return err
	}

	if _, err := conferences.Create("icsa", "hyderabad", []string{"software engineering"},
		day.Add(10*time.Hour), day.Add(11*time.Hour), 1); err != nil {
		return err
	}
	if _, err := conferences.Create("iros", "bengaluru", []string{"robotics"},
		day.Add(12*time.Hour), day.Add(18*time.Hour), 20); err != nil {
		return err
	}

	for _, userID := range []string{"aryan", "harsh"} {
		if _, err := bookings.Book("icsa", userID); err != nil {
			return err
		}
	}
	return nil
}

func printState(conferences domain.ConferenceService, users domain.UserService) {
	for _, c := range conferences.List() {
		fmt.Printf("Conference %s at %s  %s to %s\n", c.Name, c.Location,
			c.StartTime.Format(time.RFC3339), c.EndTime.Format(time.RFC3339))
		fmt.Printf("  topics: %v\n", c.Topics)
		fmt.Printf("  slots remaining: %d/%d\n", c.SlotsRemaining, c.Capacity)
		fmt.Printf("  attendees: %v\n", c.Attendees)
		fmt.Printf("  waitlist: %v\n", c.Waitlist)
	}
	for _, u := range users.List() {
		fmt.Printf("User %s  interests: %v\n", u.ID, u.Interests)
		for _, b := range u.Bookings {
			fmt.Printf("  booking %d  %s  %s\n", b.ID, b.ConferenceName, b.Status)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
