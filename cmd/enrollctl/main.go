// cmd/enrollctl/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/backend"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/backend/rest"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/config"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/enroll"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/logger"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/store"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/store/leveldb"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/store/sqlstore"
)

// enrollctl runs a batch enrollment synchronously: same controller and
// step executor as the service, but steps loop in-process until the
// record is terminal instead of chaining through self-dispatch.
func main() {
	users := flag.String("users", "", "comma separated user IDs to enroll")
	group := flag.Int64("group", 0, "target group ID")
	admin := flag.Int64("admin", 0, "initiating admin user ID")
	leveldbPath := flag.String("leveldb", config.DefaultLevelDBPath, "leveldb store path")
	postgresURL := flag.String("postgres", "", "postgres URL (overrides leveldb)")
	backendURL := flag.String("backend-url", "", "learning backend base URL (in-memory backend when empty)")
	backendToken := flag.String("backend-token", "", "learning backend bearer token")
	flag.Parse()

	if *users == "" || *group == 0 {
		fmt.Fprintln(os.Stderr, "usage: enrollctl -users 7,8,9 -group 45 [-admin 1]")
		os.Exit(1)
	}

	userIDs := parseUserIDs(*users)

	zlog, err := logger.New("warn", "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(2)
	}
	defer zlog.Sync()

	var st store.Store
	if *postgresURL != "" {
		st, err = sqlstore.NewClient(config.StoreConfig{PostgresURL: *postgresURL})
	} else {
		st, err = leveldb.NewClient(config.StoreConfig{LevelDBPath: *leveldbPath})
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open store:", err)
		os.Exit(2)
	}
	defer st.Close()

	var be backend.LearningBackend
	if *backendURL != "" {
		be = rest.NewClient(config.BackendConfig{BaseURL: *backendURL, Token: *backendToken})
	} else {
		be = backend.NewMemory()
	}

	service := enroll.NewService(st, be, nil, zlog)

	record, err := service.RunBatch(context.Background(), userIDs, *group, *admin)
	if record != nil {
		out, _ := json.MarshalIndent(record, "", "  ")
		fmt.Println(string(out))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "batch run failed:", err)
		os.Exit(1)
	}
}

// parseUserIDs splits a comma separated list; invalid entries are left
// for validation to reject
func parseUserIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
