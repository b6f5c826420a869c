// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package push

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

const testKeyID = "test-key-id"

func generateRSAKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return privateKey
}

func createJWKS(t testing.TB, publicKey *rsa.PublicKey) jwk.Set {
	t.Helper()

	key, err := jwk.FromRaw(publicKey)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, testKeyID))
	require.NoError(t, key.Set(jwk.AlgorithmKey, jwa.RS256))

	keyset := jwk.NewSet()
	require.NoError(t, keyset.AddKey(key))
	return keyset
}

// signNotification signs a token the way an agent does for a push payload.
func signNotification(t testing.TB, privateKey *rsa.PrivateKey, issuedAt time.Time, body []byte) string {
	t.Helper()

	hash, err := BodyHash(body)
	require.NoError(t, err)
	return createTestJWT(t, privateKey, map[string]any{
		jwt.IssuedAtKey: issuedAt,
		BodyHashClaim:   hash,
	})
}

func createTestJWT(t testing.TB, privateKey *rsa.PrivateKey, claims map[string]any) string {
	t.Helper()

	token := jwt.New()
	for key, value := range claims {
		require.NoError(t, token.Set(key, value))
	}

	key, err := jwk.FromRaw(privateKey)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, testKeyID))

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, key))
	require.NoError(t, err)
	return string(signed)
}

// newJWKSServer serves keyset at /.well-known/jwks.json and returns its URL.
func newJWKSServer(t testing.TB, keyset jwk.Set) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/jwks.json" {
			http.NotFound(w, r)
			return
		}

		keysetJSON, err := json.Marshal(keyset)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(keysetJSON)
	}))
	t.Cleanup(server.Close)

	return server.URL + "/.well-known/jwks.json"
}
