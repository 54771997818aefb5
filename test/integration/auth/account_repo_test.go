// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

//go:build integration

package auth_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/postpen/postpen/internal/auth"
	"github.com/postpen/postpen/internal/store"
)

var _ = Describe("AccountRepository", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupAccounts(ctx)
	})

	newAccount := func(username string) *auth.Account {
		account, err := auth.NewAccount(username, "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA")
		Expect(err).NotTo(HaveOccurred())
		account.CreatedAt = account.CreatedAt.Truncate(time.Microsecond)
		account.UpdatedAt = account.CreatedAt
		return account
	}

	Describe("Create", func() {
		It("persists an account readable by id and username", func() {
			account := newAccount("alice")
			Expect(env.Accounts.Create(ctx, account)).To(Succeed())

			byID, err := env.Accounts.GetByID(ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(byID.Username).To(Equal("alice"))
			Expect(byID.PasswordHash).To(Equal(account.PasswordHash))
			Expect(byID.CreatedAt).To(BeTemporally("==", account.CreatedAt))

			byName, err := env.Accounts.GetByUsername(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(byName.ID).To(Equal(account.ID))
		})

		It("reports a duplicate username as a conflict", func() {
			Expect(env.Accounts.Create(ctx, newAccount("alice"))).To(Succeed())

			err := env.Accounts.Create(ctx, newAccount("alice"))
			Expect(err).To(HaveOccurred())
			Expect(auth.IsConflict(err)).To(BeTrue())
		})

		It("lets exactly one of many concurrent registrations win", func() {
			const attempts = 8
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				ok        int
				conflicts int
			)
			for range attempts {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					err := env.Accounts.Create(ctx, newAccount("racer"))
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						ok++
					case auth.IsConflict(err):
						conflicts++
					}
				}()
			}
			wg.Wait()

			Expect(ok).To(Equal(1))
			Expect(conflicts).To(Equal(attempts - 1))
		})
	})

	Describe("GetByUsername", func() {
		It("matches usernames exactly", func() {
			Expect(env.Accounts.Create(ctx, newAccount("alice"))).To(Succeed())

			_, err := env.Accounts.GetByUsername(ctx, "Alice")
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})

	Describe("List", func() {
		It("returns an empty slice for an empty table", func() {
			accounts, err := env.Accounts.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(accounts).NotTo(BeNil())
			Expect(accounts).To(BeEmpty())
		})

		It("returns accounts in creation order", func() {
			first := newAccount("alice")
			second := newAccount("bob")
			second.CreatedAt = first.CreatedAt.Add(time.Second)
			second.UpdatedAt = second.CreatedAt
			Expect(env.Accounts.Create(ctx, second)).To(Succeed())
			Expect(env.Accounts.Create(ctx, first)).To(Succeed())

			accounts, err := env.Accounts.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(accounts).To(HaveLen(2))
			Expect(accounts[0].Username).To(Equal("alice"))
			Expect(accounts[1].Username).To(Equal("bob"))
		})
	})

	Describe("Migrator", func() {
		It("reports the schema as fully applied", func() {
			migrator, err := store.NewMigrator(env.connStr)
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = migrator.Close() }()

			status, err := migrator.Status()
			Expect(err).NotTo(HaveOccurred())
			Expect(status.Dirty).To(BeFalse())
			Expect(status.Pending).To(BeEmpty())
			Expect(status.Applied).To(ContainElement(uint(1)))
		})
	})
})
