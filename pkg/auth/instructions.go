package auth

import (
	"fmt"
	"strings"
)

// ShowTokenGuide displays step-by-step instructions for creating an API token
func ShowTokenGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📚 JIRA API TOKEN GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("Public trackers like issues.apache.org need no credentials at all;")
	fmt.Println("skip this unless your tracker requires authentication.")
	fmt.Println()

	fmt.Println("🔑 STEP 1: Create an API token")
	fmt.Println("   • Jira Cloud: https://id.atlassian.com/manage-profile/security/api-tokens")
	fmt.Println("     Click 'Create API token', name it, and copy the value shown once")
	fmt.Println("   • Jira Server/Data Center: use a Personal Access Token from your")
	fmt.Println("     profile page, or ask your administrator")
	fmt.Println()

	fmt.Println("💾 STEP 2: Store it")
	fmt.Println("   jirascraper auth login")
	fmt.Println("   You will be prompted for the account email; the token is read")
	fmt.Println("   with terminal echo disabled and never written to the shell history")
	fmt.Println()

	fmt.Println("🌱 ALTERNATIVE: environment variables (CI, one-off runs)")
	fmt.Println("   export JIRASCRAPER_EMAIL=you@example.com")
	fmt.Println("   export JIRASCRAPER_API_TOKEN=...")
	fmt.Println()

	fmt.Println("⚠️  SECURITY:")
	fmt.Println("   • The token grants your full Jira access; never share it")
	fmt.Println("   • Stored tokens go to the system keychain when available,")
	fmt.Println("     otherwise to an encrypted file under your config directory")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickTokenGuide shows a condensed version for experienced users
func ShowQuickTokenGuide() {
	fmt.Println("\n🔑 Quick Guide: id.atlassian.com → Security → API tokens → Create")
	fmt.Println("   Then: jirascraper auth login (or set JIRASCRAPER_EMAIL / JIRASCRAPER_API_TOKEN)")
}
