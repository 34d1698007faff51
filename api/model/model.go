/*
Copyright 2024 Reclaim Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SendOutreach is the request body for dispatching an outreach message.
type SendOutreach struct {
	CustomerID int64  `json:"customer_id"`
	Channel    string `json:"channel"`
	Template   string `json:"template"`
}

func (s *SendOutreach) ValidateSendOutreach() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.CustomerID, validation.Required),
		validation.Field(&s.Channel, validation.Required, validation.In("email", "sms", "whatsapp")),
		validation.Field(&s.Template, validation.Required),
	)
}

// UpdateStatus is the request body for moving a recovery customer
// through the pipeline.
type UpdateStatus struct {
	Status  string `json:"status"`
	Channel string `json:"channel"`
	Notes   string `json:"notes"`
}

func (u *UpdateStatus) ValidateUpdateStatus() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Status, validation.Required),
	)
}
