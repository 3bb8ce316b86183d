package features

const (
	advisorIntro = "🎓 **Course Advisor**\n\n" +
		"I can help you with admission requirements for any course in Nigerian universities.\n\n" +
		"Please type the name of the course you want to study:"
	advisorReask   = "Please type the name of a course, for example: Computer Science"
	advisorPrompt  = "Provide comprehensive academic advice for studying %s. Include information about: " +
		"1. Recommended JAMB score and minimum cut-off mark " +
		"2. WAEC/NECO requirements (8 minimum subjects + 1 optional) " +
		"3. UTME subject combinations " +
		"4. Career prospects and job opportunities " +
		"5. Top universities offering this course " +
		"Format your response with clear headings and bullet points."
	advisorAnswer = "📘 **Admission Guide: %s**\n\n%s"

	assignmentIntro = "📄 **Assignment Helper**\n\nDescribe your assignment topic, or upload the brief as a PDF."
	assignmentReask = "Please describe your assignment topic in a few words."
	analysisPrompt  = "Analyze the assignment topic '%s' and provide a detailed analysis, key points, and suggestions."
	analysisDocPart = "\n\nThe student uploaded this assignment document:\n%s"
	analysisAnswer  = "**Analysis for '%s':**\n\n%s"
	followUpPrompt  = "What is your follow-up question?"
	uploadsOff      = "File uploads are not available right now. Please describe your assignment topic instead."
	uploadNotPDF    = "❌ Please upload a PDF document."
	uploadTooLarge  = "❌ That file is too large. Please upload a PDF under 20 MB."
	uploadNoText    = "❌ I couldn't read any text from that PDF. Please describe your assignment topic instead."
	uploadDone      = "📎 Got it. I read %d characters from %s.\n\nNow describe your assignment topic:"
	startFirst      = "Please /start the bot first."

	projectIntro = "📝 **Create New Project**\n\n" +
		"Let's create a new academic project. I'll guide you through the process.\n\n" +
		"First, please enter the title of your project:"
	projectAskTopic = "Great! Now, please describe the topic of your project in detail:"
	projectAskPages = "How long should your project be? (1 page = 750 words)\n\n" +
		"Select an option or choose 'Custom Length':"
	projectCustomPages = "Please enter the exact number of pages you want (1 page = 750 words):"
	projectBadPages    = "❌ Please enter a valid number of pages."
	projectSummary     = "📌 **Project Summary**\n\nTitle: %s\nTopic: %s\nLength: %d pages (%s words)\n\nIs this correct?"
	projectCreated     = "✅ Project created successfully!\n\n" +
		"Now let's generate the first chapter. What should the chapter be about?"
	projectCancelled = "Project creation cancelled."
	projectExpired   = "⚠️ Project session expired. Please start over."
	chapterPrompt    = "Generate a detailed academic chapter for a project titled '%s'. " +
		"The chapter should be titled '%s' and cover the following topic: '%s'. " +
		"Write in a formal academic style with proper citations where necessary. " +
		"Maintain a length appropriate for a %d-page project."
	chapterDone = "✅ Chapter '%s' generated successfully!\n\n" +
		"Here's a preview of the first 500 characters:\n\n%s\n\n" +
		"Send another chapter title to generate the next chapter."

	tutorIntro  = "🧠 **Mini Tutor**\n\nAsk me any academic question. I will provide a detailed explanation."
	tutorPrompt = "As an expert academic tutor, answer this student's question clearly and concisely: %s"

	paymentsDisabled = "💳 Payments are currently disabled."
	noPlans          = "💎 **Premium Plans**\n\nThere are no plans available right now. Please check back later."
	plansIntro       = "💎 **Premium Plans**\n\nSubscribe to unlock assignment help, project writing and more.\n\nChoose a plan:"
	planChosen       = "You selected **%s** (%s).\n\n📧 Please enter your email address for the payment receipt:"
	badEmail         = "❌ That doesn't look like a valid email address. Please try again:"
	sessionExpired   = "⚠️ Your session expired. Please start again from /start."
	paymentReady     = "✅ **Payment link ready**\n\nPlan: %s\nAmount: %s\n\n" +
		"Tap the button below to complete your payment. Your subscription activates as soon as Paystack confirms it."
)

// Button labels.
const (
	labelFollowUp        = "❓ Ask a Follow-up"
	labelAnotherFollowUp = "❓ Ask Another Follow-up"
	labelConfirm         = "✅ Confirm"
	labelCancel          = "❌ Cancel"
	labelCustomLength    = "Custom Length"
	labelPayNow          = "💳 Pay Now"
)
