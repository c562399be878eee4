// Package cli is the labbook command line: sign in with an emailed code, browse
// the month grid, and reserve or cancel room time.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"labbook/internal/calendar"
	"labbook/internal/client"
	"labbook/internal/domain/booking"
	"labbook/internal/realtime"
)

const (
	DefaultServer = "http://localhost:8080"
	monthLayout   = "2006-01"
)

type app struct {
	v   *viper.Viper
	in  *bufio.Reader
	out io.Writer
	log *zap.Logger
	now func() time.Time
}

// NewRootCommand builds the labbook command tree. --server and --session can
// also come from LABBOOK_SERVER and LABBOOK_SESSION.
func NewRootCommand(in io.Reader, out io.Writer, log *zap.Logger) *cobra.Command {
	if log == nil {
		log = zap.NewNop()
	}
	a := &app{
		v:   viper.New(),
		in:  bufio.NewReader(in),
		out: out,
		log: log,
		now: time.Now,
	}
	a.v.SetEnvPrefix("LABBOOK")
	a.v.AutomaticEnv()
	a.v.SetDefault("session", DefaultSessionPath())

	root := &cobra.Command{
		Use:           "labbook",
		Short:         "Book the shared lab room",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.PersistentFlags().String("server", "", "API base URL (default "+DefaultServer+")")
	root.PersistentFlags().String("session", "", "session file path")
	_ = a.v.BindPFlag("server", root.PersistentFlags().Lookup("server"))
	_ = a.v.BindPFlag("session", root.PersistentFlags().Lookup("session"))

	root.AddCommand(
		a.loginCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.monthCommand(),
		a.dayCommand(),
		a.reserveCommand(),
		a.cancelCommand(),
		a.watchCommand(),
	)
	return root
}

func (a *app) sessionPath() string {
	if p := a.v.GetString("session"); p != "" {
		return p
	}
	return DefaultSessionPath()
}

func (a *app) server(sess *Session) string {
	if s := a.v.GetString("server"); s != "" {
		return strings.TrimRight(s, "/")
	}
	if sess != nil && sess.Server != "" {
		return sess.Server
	}
	return DefaultServer
}

// connect loads the saved session and returns a client carrying its token.
func (a *app) connect() (*Session, *client.Client, error) {
	sess, err := LoadSession(a.sessionPath())
	if err != nil {
		return nil, nil, err
	}
	return sess, client.New(a.server(sess), sess.Token), nil
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimSpace(line), nil
}

func (a *app) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login [email]",
		Short: "Sign in with a one-time code sent by email",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			server := a.server(nil)
			cl := client.New(server, "")

			var email string
			if len(args) == 1 {
				email = args[0]
			} else {
				var err error
				if email, err = a.prompt("Email: "); err != nil {
					return err
				}
			}

			if err := cl.RequestCode(ctx, email); err != nil {
				return fmt.Errorf("request code: %w", err)
			}
			fmt.Fprintf(a.out, "A sign-in code was sent to %s.\n", email)

			code, err := a.prompt("Code: ")
			if err != nil {
				return err
			}
			login, err := cl.VerifyCode(ctx, email, code)
			if err != nil {
				return fmt.Errorf("verify code: %w", err)
			}

			sess := &Session{
				Server:      server,
				Token:       login.AccessToken,
				UserID:      login.User.UserID,
				Email:       login.User.Email,
				DisplayName: login.User.DisplayName,
			}
			if err := SaveSession(a.sessionPath(), sess); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Fprintf(a.out, "Signed in as %s <%s>.\n", sess.DisplayName, sess.Email)
			return nil
		},
	}
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := RemoveSession(a.sessionPath()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cl, err := a.connect()
			if err != nil {
				return err
			}
			me, err := cl.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s <%s> (%s)\n", me.DisplayName, me.Email, me.UserID)
			return nil
		},
	}
}

func (a *app) monthCommand() *cobra.Command {
	var next, prev int
	cmd := &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Show the booking grid of a month",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := a.now()
			if len(args) == 1 {
				t, err := time.Parse(monthLayout, args[0])
				if err != nil {
					return fmt.Errorf("month must look like 2026-11: %w", err)
				}
				ref = t
			}
			ref = calendar.AddMonths(ref, next-prev)

			sess, cal, err := a.openCalendar(cmd.Context(), ref)
			if err != nil {
				return err
			}
			a.renderMonth(cal, sess)
			return nil
		},
	}
	cmd.Flags().CountVarP(&next, "next", "n", "move forward one month per flag")
	cmd.Flags().CountVarP(&prev, "prev", "p", "move back one month per flag")
	return cmd
}

func (a *app) dayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "day YYYY-MM-DD",
		Short: "List the bookings of one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDayArg(args[0])
			if err != nil {
				return err
			}
			sess, cal, err := a.openCalendar(cmd.Context(), day)
			if err != nil {
				return err
			}
			RenderDay(a.out, args[0], cal.Day(args[0]), sess.UserID)
			return nil
		},
	}
}

func (a *app) reserveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reserve YYYY-MM-DD START END",
		Short: "Reserve the room, e.g. reserve 2026-11-03 09:00 10:30",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDayArg(args[0])
			if err != nil {
				return err
			}
			sess, cal, err := a.openCalendar(cmd.Context(), day)
			if err != nil {
				return err
			}

			out := cal.Reserve(cmd.Context(), sess.Calendar(), args[0], args[1], args[2])
			fmt.Fprintln(a.out, out.Message())
			RenderDay(a.out, args[0], cal.Day(args[0]), sess.UserID)
			if out.Failed() {
				return outcomeError(out)
			}
			return nil
		},
	}
}

func (a *app) cancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel YYYY-MM-DD BOOKING_ID",
		Short: "Cancel one of your bookings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDayArg(args[0])
			if err != nil {
				return err
			}
			sess, cal, err := a.openCalendar(cmd.Context(), day)
			if err != nil {
				return err
			}

			var target *booking.Booking
			for _, b := range cal.Day(args[0]) {
				if b.ID == args[1] {
					target = &b
					break
				}
			}
			if target == nil {
				return fmt.Errorf("no booking %s on %s", args[1], args[0])
			}

			out := cal.Cancel(cmd.Context(), sess.Calendar(), args[0], *target)
			fmt.Fprintln(a.out, out.Message())
			if out.Failed() {
				return outcomeError(out)
			}
			return nil
		},
	}
}

func (a *app) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [YYYY-MM]",
		Short: "Redraw the month grid whenever its bookings change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := a.now()
			if len(args) == 1 {
				t, err := time.Parse(monthLayout, args[0])
				if err != nil {
					return fmt.Errorf("month must look like 2026-11: %w", err)
				}
				ref = t
			}

			ctx := cmd.Context()
			sess, cl, err := a.connect()
			if err != nil {
				return err
			}
			cal := calendar.New(cl, a.log)
			if err := cal.FetchMonth(ctx, ref); err != nil {
				return err
			}
			a.renderMonth(cal, sess)

			err = cl.Watch(ctx, []string{cal.View().Format(monthLayout)}, func(msg realtime.Message) {
				a.log.Debug("booking change", zap.String("type", string(msg.Type)), zap.String("day", msg.Day))
				if err := cal.Refresh(ctx); err != nil {
					fmt.Fprintln(a.out, cal.Message())
					return
				}
				fmt.Fprintf(a.out, "\n%s %s\n", msg.Type, msg.Day)
				a.renderMonth(cal, sess)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func (a *app) openCalendar(ctx context.Context, ref time.Time) (*Session, *calendar.Calendar, error) {
	sess, cl, err := a.connect()
	if err != nil {
		return nil, nil, err
	}
	cal := calendar.New(cl, a.log)
	if err := cal.FetchMonth(ctx, ref); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return nil, nil, fmt.Errorf("%w (session expired, run `labbook login`)", err)
		}
		return nil, nil, err
	}
	return sess, cal, nil
}

func (a *app) renderMonth(cal *calendar.Calendar, sess *Session) {
	RenderMonth(a.out, cal.View(), cal.Counts(), cal.MineCounts(sess.UserID), booking.FormatDay(a.now()))
}

func parseDayArg(s string) (time.Time, error) {
	t, err := booking.ParseDay(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("day must look like 2026-11-03: %w", err)
	}
	return t, nil
}

func outcomeError(out calendar.Outcome) error {
	if out.Err != nil {
		return fmt.Errorf("%s: %w", out.Kind, out.Err)
	}
	return errors.New(out.Kind.String())
}
