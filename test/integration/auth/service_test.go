// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

//go:build integration

package auth_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/postpen/postpen/internal/auth"
	"github.com/postpen/postpen/internal/auth/authtest"
)

var _ = Describe("Service against PostgreSQL", func() {
	var (
		ctx context.Context
		svc *auth.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		cleanupAccounts(ctx)

		var err error
		hasher := auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 1, Memory: 1024, Threads: 1})
		svc, err = auth.NewService(env.Accounts, hasher)
		Expect(err).NotTo(HaveOccurred())
	})

	It("registers, rejects duplicates, and logs in", func() {
		res, err := svc.Register(ctx, auth.Credentials{Username: "alice", Password: "abcdef"})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.OK()).To(BeTrue())

		res, err = svc.Register(ctx, auth.Credentials{Username: "alice", Password: "xyz123"})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Errors).To(ConsistOf(auth.FieldError{Field: "Username", Message: "Username already exists"}))

		sess := authtest.NewSession()
		res, err = svc.Login(ctx, auth.Credentials{Username: "alice", Password: "wrong"}, sess)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Errors).To(ConsistOf(auth.FieldError{Field: "Password", Message: "Password is incorrect"}))
		Expect(sess.Written()).To(BeFalse())

		res, err = svc.Login(ctx, auth.Credentials{Username: "alice", Password: "abcdef"}, sess)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.OK()).To(BeTrue())

		me, err := svc.CurrentUser(ctx, sess)
		Expect(err).NotTo(HaveOccurred())
		Expect(me).NotTo(BeNil())
		Expect(me.Username).To(Equal("alice"))

		users, err := svc.ListUsers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(HaveLen(1))
	})
})
