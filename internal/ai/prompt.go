package ai

import "fmt"

// BuildDraftPrompt creates the instruction sent to every provider. The model
// must keep the base letter's structure and only replace the generic
// product references with real, developer-facing offerings of the sponsor.
func BuildDraftPrompt(params DraftParams) string {
	sponsor := params.SponsorName

	return fmt.Sprintf(`You are drafting a sponsorship outreach email for a major university hackathon. The email must sound professional, clear, and enthusiastic, not robotic. You must follow the structure and language of the template below **exactly**, but customize certain parts with accurate, company-specific references.

Do not skip any sections. Replace placeholders where required, especially where %[1]s's tools, APIs, or services are mentioned. Use real product names, not generic placeholders. Do basic research if needed to fill in product details.

Here is the base template (follow it strictly):

---

%[2]s

---

INSTRUCTIONS:
Use real company-specific context to customize this email.

From %[1]s, identify:
- APIs that students could build with (e.g., AI, payments, maps)
- Services that require platform credits
- Developer tools or SDKs useful in a hackathon
- Software licenses that students can use temporarily

Then inject those details into the relevant sponsorship bullets above. Do not leave placeholders like [insert tool here]; always fill in real names and examples. Avoid products that aren't developer-facing.

Output the final email in plain text only: no markdown, no HTML.`, sponsor, params.BaseLetter)
}
