// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package kubernetes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/wardensync/wardensync/pkg/errors"
	"github.com/wardensync/wardensync/pkg/mapper"
)

func testTarget(namespace, name string, data map[string]string) *mapper.Target {
	revision := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	return &mapper.Target{
		Namespace:   namespace,
		SecretName:  name,
		Data:        data,
		Fingerprint: mapper.Fingerprint(data, revision),
		Annotations: map[string]string{
			mapper.AnnotationSourceItemID: "item-1",
		},
		SourceItemID: "item-1",
		Revision:     revision,
	}
}

func TestCreateAndGetSecret(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset()
	c := NewSecretsClient(clientset, "")

	target := testTarget("prod", "db-creds", map[string]string{"user": "u", "pass": "p"})
	require.NoError(t, c.CreateSecret(t.Context(), target))

	data, err := c.GetSecretData(t.Context(), "prod", "db-creds")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"user": "u", "pass": "p"}, data)

	secret, err := clientset.CoreV1().Secrets("prod").Get(t.Context(), "db-creds", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultManagedByValue, secret.Labels[ManagedByLabel])
	assert.Equal(t, "item-1", secret.Annotations[mapper.AnnotationSourceItemID])
}

func TestCreateSecret_FallsBackToUpdate(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset()
	c := NewSecretsClient(clientset, "")

	require.NoError(t, c.CreateSecret(t.Context(), testTarget("prod", "db-creds", map[string]string{"pass": "p"})))
	require.NoError(t, c.CreateSecret(t.Context(), testTarget("prod", "db-creds", map[string]string{"pass": "p2"})))

	data, err := c.GetSecretData(t.Context(), "prod", "db-creds")
	require.NoError(t, err)
	assert.Equal(t, "p2", data["pass"])
}

func TestUpdateSecret_FallsBackToCreate(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset()
	c := NewSecretsClient(clientset, "")

	require.NoError(t, c.UpdateSecret(t.Context(), testTarget("prod", "db-creds", map[string]string{"pass": "p"})))

	exists, err := c.SecretExists(t.Context(), "prod", "db-creds")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteSecret(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset()
	c := NewSecretsClient(clientset, "")

	require.NoError(t, c.CreateSecret(t.Context(), testTarget("prod", "db-creds", nil)))
	require.NoError(t, c.DeleteSecret(t.Context(), "prod", "db-creds"))

	exists, err := c.SecretExists(t.Context(), "prod", "db-creds")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting an absent secret is idempotent.
	require.NoError(t, c.DeleteSecret(t.Context(), "prod", "db-creds"))
}

func TestDeleteSecret_RefusesUnmanaged(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset(&corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Namespace: "prod", Name: "hand-made"},
	})
	c := NewSecretsClient(clientset, "")

	err := c.DeleteSecret(t.Context(), "prod", "hand-made")
	require.Error(t, err)
	assert.True(t, errors.IsNotManaged(err), "engine must never delete what it does not own")

	exists, err := c.SecretExists(t.Context(), "prod", "hand-made")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestListManagedSecrets(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset(
		&corev1.Secret{ObjectMeta: metav1.ObjectMeta{
			Namespace:   "prod",
			Name:        "managed",
			Labels:      map[string]string{ManagedByLabel: DefaultManagedByValue},
			Annotations: map[string]string{mapper.AnnotationSourceItemID: "item-1"},
		}},
		&corev1.Secret{ObjectMeta: metav1.ObjectMeta{
			Namespace: "prod",
			Name:      "unmanaged",
		}},
		&corev1.Secret{ObjectMeta: metav1.ObjectMeta{
			Namespace: "dev",
			Name:      "managed-too",
			Labels:    map[string]string{ManagedByLabel: DefaultManagedByValue},
		}},
	)
	c := NewSecretsClient(clientset, "")

	refs, err := c.ListManagedSecrets(t.Context(), "prod")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "managed", refs[0].Name)
	assert.Equal(t, "item-1", refs[0].SourceItemID)

	all, err := c.ListManagedSecrets(t.Context(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
