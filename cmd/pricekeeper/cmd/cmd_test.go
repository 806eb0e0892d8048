package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/solatis/pricekeeper/internal/core/api"
	"github.com/solatis/pricekeeper/internal/core/auth"
	"github.com/solatis/pricekeeper/internal/core/config"
	"github.com/solatis/pricekeeper/internal/core/db"
)

const rulesFixture = `[
  {
    "id": "weekday-lunch",
    "name": "Weekday lunch",
    "is_active": true,
    "priority": 10,
    "conditions": [{"type": "time_of_day", "from": "10:00", "to": "14:00", "days": [1, 2, 3, 4]}],
    "action": {"type": "percentage_discount", "value": "15"},
    "target_audience": {"type": "all"}
  },
  {
    "id": "vip-price",
    "name": "VIP flat price",
    "is_active": true,
    "priority": 5,
    "conditions": [],
    "action": {"type": "fixed_price", "value": "30", "currency": "BRL"},
    "target_audience": {"type": "segment", "segment_id": "vip"}
  }
]`

func TestSimulate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	if err := os.WriteFile(path, []byte(rulesFixture), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	tests := []struct {
		name string
		args []string
		want api.Quote
	}{
		{
			name: "lunch discount",
			args: []string{"--at", "2025-06-10T12:00:00-03:00"},
			want: api.Quote{OriginalPrice: "50.00", FinalPrice: "42.50", DiscountAmount: "7.50", AppliedRuleID: "weekday-lunch", AppliedRuleName: "Weekday lunch"},
		},
		// Runs last: --client and --segments stay set on the shared command
		{
			name: "vip segment wins on priority",
			args: []string{"--at", "2025-06-10T12:00:00-03:00", "--client", "c-1", "--segments", "vip"},
			want: api.Quote{OriginalPrice: "50.00", FinalPrice: "30.00", DiscountAmount: "20.00", AppliedRuleID: "vip-price", AppliedRuleName: "VIP flat price"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			args := append([]string{"simulate", "--rules", path, "--service", "svc-yoga", "--base-price", "50"}, tt.args...)
			rootCmd.SetArgs(args)
			rootCmd.SetOut(&out)

			if err := rootCmd.Execute(); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			var got api.Quote
			if err := json.Unmarshal(out.Bytes(), &got); err != nil {
				t.Fatalf("output is not a quote: %v\n%s", err, out.String())
			}
			if got != tt.want {
				t.Errorf("quote = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPickSecret(t *testing.T) {
	one := map[string][]byte{"aa": []byte("s1")}
	two := map[string][]byte{"aa": []byte("s1"), "bb": []byte("s2")}

	tests := []struct {
		name    string
		secrets map[string][]byte
		flag    string
		want    string
		wantErr bool
	}{
		{"none configured", nil, "", "", true},
		{"single implicit", one, "", "aa", false},
		{"explicit", two, "bb", "bb", false},
		{"ambiguous", two, "", "", true},
		{"unknown", one, "cc", "", true},
	}

	for _, tt := range tests {
		got, err := pickSecret(tt.secrets, tt.flag)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: pickSecret() error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: pickSecret() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute(%v) error = %v", args, err)
	}
	return out.String()
}

func TestSegments(t *testing.T) {
	mr := miniredis.RunT(t)
	const key = "segment:vip:members"

	execute(t, "segments", "add", "vip", "c-1", "c-2", "--redis-addr", mr.Addr(), "--log-level", "error")
	for _, client := range []string{"c-1", "c-2"} {
		if ok, _ := mr.IsMember(key, client); !ok {
			t.Errorf("after add, %s member of vip = false, want true", client)
		}
	}

	execute(t, "segments", "remove", "vip", "c-1", "--redis-addr", mr.Addr(), "--log-level", "error")
	if ok, _ := mr.IsMember(key, "c-1"); ok {
		t.Errorf("after remove, c-1 member of vip = true, want false")
	}
	if ok, _ := mr.IsMember(key, "c-2"); !ok {
		t.Errorf("after remove, c-2 member of vip = false, want true")
	}
}

var createdKeyPattern = regexp.MustCompile(`(?m)^api_key_id: (\S+)\napi_key:\s+(\S+)$`)

func TestAPIKeyCreateAndRevoke(t *testing.T) {
	t.Setenv("PK_HMAC_SECRET", "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
	url := "sqlite://" + filepath.Join(t.TempDir(), "keys.db")
	ctx := context.Background()

	execute(t, "migrate", "up", "--db-url", url, "--log-level", "error")
	out := execute(t, "apikey", "create", "--tenant", "gym-1", "--name", "front desk", "--db-url", url, "--log-level", "error")

	m := createdKeyPattern.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("apikey create output = %q, want api_key_id and api_key lines", out)
	}
	apiKeyID, key := m[1], m[2]

	conn, err := db.Open(ctx, url)
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	queries, err := db.LoadQueries(conn)
	if err != nil {
		t.Fatalf("LoadQueries() error = %v", err)
	}
	secrets, err := config.HMACSecrets()
	if err != nil {
		t.Fatalf("HMACSecrets() error = %v", err)
	}
	authenticator := auth.NewAuthenticator(secrets, queries, nil)

	tenantID, err := authenticator.Authenticate(ctx, key)
	if err != nil {
		t.Fatalf("Authenticate(created key) error = %v", err)
	}
	if tenantID != "gym-1" {
		t.Errorf("Authenticate() tenant = %q, want gym-1", tenantID)
	}

	if got := execute(t, "apikey", "revoke", apiKeyID, "--db-url", url); got != "revoked "+apiKeyID+"\n" {
		t.Errorf("apikey revoke output = %q, want %q", got, "revoked "+apiKeyID+"\n")
	}
	if _, err := authenticator.Authenticate(ctx, key); !errors.Is(err, auth.ErrKeyRevoked) {
		t.Errorf("Authenticate(revoked key) error = %v, want ErrKeyRevoked", err)
	}
}

func TestAPIKeyCreate_NoSecret(t *testing.T) {
	t.Setenv("PK_HMAC_SECRET", "")
	rootCmd.SetArgs([]string{"apikey", "create", "--tenant", "gym-1", "--log-level", "error"})
	rootCmd.SetOut(&bytes.Buffer{})
	if err := rootCmd.Execute(); err == nil {
		t.Errorf("apikey create without secrets error = nil, want error")
	}
}
