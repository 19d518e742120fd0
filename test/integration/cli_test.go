// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

//go:build integration

package integration

import (
	"net/http"
	"os"
	"os/exec"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/agora-social/agora/internal/config"
	"github.com/agora-social/agora/internal/post"
)

const seedFixture = `
accounts:
  - name: Ada Lovelace
    email: ada@example.com
    password: engine42
    profile:
      status: Developer
      skills: go, postgres
    posts:
      - Hello from the seed file
`

// agora runs the CLI from the module root against the test database.
func agora(args ...string) (string, error) {
	GinkgoHelper()
	cmd := exec.CommandContext(env.ctx, "go", append([]string{"run", "./cmd/agora"}, args...)...)
	cmd.Dir = "../.."
	cmd.Env = append(cmd.Environ(),
		config.EnvDatabaseURL+"="+env.db.ConnString,
		config.EnvJWTSecret+"="+string(testSecret),
	)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

var _ = Describe("CLI", func() {
	It("reports the schema version on migrate", func() {
		output, err := agora("migrate")
		Expect(err).NotTo(HaveOccurred(), "migrate failed: %s", output)
		Expect(output).To(ContainSubstring("No pending migrations"))
		Expect(output).To(ContainSubstring("Schema at version"))
	})

	It("seeds fixtures once and skips existing accounts", func() {
		path := filepath.Join(GinkgoT().TempDir(), "fixtures.yaml")
		Expect(os.WriteFile(path, []byte(seedFixture), 0o600)).To(Succeed())

		output, err := agora("seed", "--file", path)
		Expect(err).NotTo(HaveOccurred(), "seed failed: %s", output)
		Expect(output).To(ContainSubstring("Created ada@example.com"))
		Expect(output).To(ContainSubstring("1 created, 0 skipped"))

		output, err = agora("seed", "--file", path)
		Expect(err).NotTo(HaveOccurred(), "second seed failed: %s", output)
		Expect(output).To(ContainSubstring("Skipping ada@example.com"))
		Expect(output).To(ContainSubstring("0 created, 1 skipped"))

		resp := call(http.MethodPost, "/api/auth", "", map[string]string{
			"email": "ada@example.com", "password": "engine42",
		})
		Expect(resp.Status).To(Equal(http.StatusOK))
		var token struct {
			Token string `json:"token"`
		}
		resp.Decode(&token)

		var posts []post.Post
		call(http.MethodGet, "/api/posts", token.Token, nil).Decode(&posts)
		Expect(posts).To(HaveLen(1))
		Expect(posts[0].Text).To(Equal("Hello from the seed file"))
	})
})
