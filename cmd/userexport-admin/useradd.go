package main

import (
	"fmt"

	"github.com/isdelr/userexport/internal/services"
	"github.com/spf13/cobra"
)

var (
	userName     string
	userPassword string
	userEmail    string
	userRealName string
	userGroups   []string
)

var useraddCmd = &cobra.Command{
	Use:   "useradd",
	Short: "Create a user and add it to groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		svc := services.NewUserService(db, cfg.GroupRights)
		ctx := cmd.Context()

		user, err := svc.CreateUser(ctx, userName, userRealName, userEmail, userPassword)
		if err != nil {
			return err
		}
		for _, g := range userGroups {
			if err := svc.AddUserToGroup(ctx, user.ID, g); err != nil {
				return fmt.Errorf("failed to add %s to group %s: %w", user.Name, g, err)
			}
		}

		rights, err := svc.GetUserRights(ctx, user.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d), groups %v, rights %v\n", user.Name, user.ID, userGroups, rights)
		return nil
	},
}

func init() {
	useraddCmd.Flags().StringVar(&userName, "name", "", "User name (required)")
	useraddCmd.Flags().StringVar(&userPassword, "password", "", "Password (required)")
	useraddCmd.Flags().StringVar(&userEmail, "email", "", "Email address")
	useraddCmd.Flags().StringVar(&userRealName, "real-name", "", "Real name")
	useraddCmd.Flags().StringSliceVar(&userGroups, "group", nil, "Group to join (repeatable)")
	useraddCmd.MarkFlagRequired("name")
	useraddCmd.MarkFlagRequired("password")
}
